// Package session は接続ごとのプレイヤー情報（セッション）を管理します
package session

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/partyroom/partyroom/backend/api-server/internal/models"
)

const (
	DefaultAvatar = "😀"
	DefaultCoins  = 500
)

// Session は1つの接続に紐づくプレイヤー情報です
type Session struct {
	ConnId   string        // 接続ID
	Player   models.Player // 接続時に解決したプレイヤー
	RoomCode string        // 参加中のルーム（未参加の場合は空）
}

// Registry は接続IDをキーにセッションを保持します
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open は接続のセッションを作成します
// 同じ接続IDで再度呼ばれた場合は既存のセッションを返します
func (r *Registry) Open(connId string, p models.Profile) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[connId]; ok {
		return s
	}
	s := &Session{ConnId: connId, Player: Resolve(connId, p)}
	r.sessions[connId] = s
	return s
}

func (r *Registry) Get(connId string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connId]
	return s, ok
}

// SetRoom は参加中のルームコードを記録します
func (r *Registry) SetRoom(connId, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[connId]; ok {
		s.RoomCode = code
	}
}

// Room は参加中のルームコードを返します
func (r *Registry) Room(connId string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[connId]; ok {
		return s.RoomCode
	}
	return ""
}

func (r *Registry) Close(connId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connId)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Resolve はプロフィールの未指定項目をデフォルト値で補ってプレイヤーを作ります
func Resolve(connId string, p models.Profile) models.Player {
	player := models.Player{
		Id:     connId,
		Name:   strings.TrimSpace(p.Name),
		Avatar: strings.TrimSpace(p.Avatar),
		Coins:  DefaultCoins,
		IsVip:  p.IsVip,
	}
	if player.Name == "" {
		player.Name = "Player " + shortId(connId)
	}
	if player.Avatar == "" {
		player.Avatar = DefaultAvatar
	}
	if p.Coins != nil {
		player.Coins = *p.Coins
	}
	return player
}

// ProfileFromQuery はWebSocketハンドシェイクのクエリからプロフィールを読み取ります
// 不正な値は未指定として扱います
func ProfileFromQuery(q url.Values) models.Profile {
	p := models.Profile{
		Name:   q.Get("name"),
		Avatar: q.Get("avatar"),
	}
	if v := q.Get("coins"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.Coins = &n
		}
	}
	if v := q.Get("isVip"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.IsVip = b
		}
	}
	return p
}

func shortId(id string) string {
	r := []rune(id)
	if len(r) > 4 {
		r = r[:4]
	}
	return string(r)
}
