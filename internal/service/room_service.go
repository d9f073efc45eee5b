// Package service はビジネスロジックを担当します
// ルームの作成・参加・退出・キック、およびゲームモードの進行を提供します
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partyroom/partyroom/backend/api-server/internal/events"
	"github.com/partyroom/partyroom/backend/api-server/internal/idgen"
	"github.com/partyroom/partyroom/backend/api-server/internal/models"
	"github.com/partyroom/partyroom/backend/api-server/internal/repo"
	"github.com/partyroom/partyroom/backend/api-server/internal/session"
)

// DefaultCapacity はルームの最大人数のデフォルト値
const DefaultCapacity = 10

// RoomService はルームのライフサイクルを管理します
type RoomService struct {
	repo     repo.RoomRepo     // ルームストア
	sessions *session.Registry // 接続ごとのセッション
	disp     Dispatcher        // イベント配信
	idg      IDGenerator       // ルームコード生成器
	capacity int               // ルームの最大人数
}

// IDGenerator はルームコードを生成するインターフェース
type IDGenerator interface {
	New() (string, error) // 新しいコードを生成
}

// roomCodeGen はIDGeneratorの実装
type roomCodeGen struct{}

// New は新しいルームコードを生成します
func (roomCodeGen) New() (string, error) { return idgen.NewRoomCode() }

// NewRoomCodeGenerator は新しいルームコード生成器を作成します
func NewRoomCodeGenerator() IDGenerator {
	return roomCodeGen{}
}

// NewRoomService は新しいRoomServiceを作成します
func NewRoomService(r repo.RoomRepo, reg *session.Registry, d Dispatcher, idg IDGenerator, capacity int) *RoomService {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RoomService{repo: r, sessions: reg, disp: d, idg: idg, capacity: capacity}
}

// NormalizeCode はルームコードの前後の空白を削除し大文字にします
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create は新しいルームを作成し、リクエストした接続をホストとして参加させます
// 処理の流れ:
// 1. 既に別のルームに参加している場合は退出
// 2. ユニークなルームコードを生成（重複チェック付き、最大10回リトライ）
// 3. ルームをストアに登録し、room_created を本人に送信
func (s *RoomService) Create(ctx context.Context, connId string, override models.Profile) (string, error) {
	const maxRetries = 10 // コード生成の最大リトライ回数

	sess, ok := s.sessions.Get(connId)
	if !ok {
		return "", ErrSessionNotFound
	}
	if s.sessions.Room(connId) != "" {
		// 1接続が参加できるルームは1つまで
		if err := s.Leave(ctx, connId); err != nil && !errors.Is(err, ErrNotInRoom) {
			return "", err
		}
	}

	host := sess.Player
	if name := strings.TrimSpace(override.Name); name != "" {
		host.Name = name
	}
	if avatar := strings.TrimSpace(override.Avatar); avatar != "" {
		host.Avatar = avatar
	}
	host.IsHost = true
	host.Team = ""

	var room *models.Room
	for i := 0; i < maxRetries; i++ {
		code, err := s.idg.New()
		if err != nil {
			return "", err
		}
		candidate := &models.Room{
			Code:      code,
			HostId:    host.Id,
			Players:   []models.Player{host},
			State:     models.StateLobby,
			CreatedAt: time.Now().Unix(),
		}
		// 登録前にロックしておき、作成者の購読より先に他の接続が参加できないようにする
		candidate.Lock()
		if s.repo.Create(candidate) {
			room = candidate
			break
		}
		candidate.Unlock()
		log.Debug().Str("room", code).Msg("room code collision, retrying")
	}
	if room == nil {
		return "", ErrRoomCodeGenerationFailed
	}
	defer room.Unlock()

	s.sessions.SetRoom(connId, room.Code)
	s.disp.Subscribe(room.Code, connId)
	s.disp.ToConn(connId, events.RoomCreated(room.Code, room.Snapshot(), room.HostId))

	log.Info().Str("room", room.Code).Str("conn", connId).Msg("room created")
	return room.Code, nil
}

// Join は接続をルームに参加させます
// 既に参加済みの場合は重複させずに参加完了を再送します
func (s *RoomService) Join(ctx context.Context, connId, rawCode string) error {
	code := NormalizeCode(rawCode)
	if code == "" {
		return ErrMalformedPayload
	}
	sess, ok := s.sessions.Get(connId)
	if !ok {
		return ErrSessionNotFound
	}
	room, ok := s.repo.Get(code)
	if !ok {
		return ErrRoomNotFound
	}
	if current := s.sessions.Room(connId); current != "" && current != code {
		// 参加できることを確認してから元のルームを退出する
		// 2つのルームのロックを同時に持たないよう、確認と参加は別々にロックする
		if err := s.checkJoinable(room, connId); err != nil {
			return err
		}
		if err := s.Leave(ctx, connId); err != nil && !errors.Is(err, ErrNotInRoom) {
			return err
		}
	}

	room.Lock()
	defer room.Unlock()
	if room.Closed {
		return ErrRoomNotFound
	}

	if !room.HasPlayer(connId) {
		if len(room.Players) >= s.capacity {
			return ErrRoomFull
		}
		p := sess.Player
		p.IsHost = false
		p.Team = ""
		room.Players = append(room.Players, p)
		s.disp.Subscribe(code, connId)
		s.sessions.SetRoom(connId, code)
		log.Info().Str("room", code).Str("conn", connId).Int("players", len(room.Players)).Msg("player joined")
	}

	players := room.Snapshot()
	s.disp.ToConn(connId, events.JoinedSuccess(code, players))
	s.disp.ToRoom(code, events.UpdatePlayers(players, room.HostId))
	return nil
}

// checkJoinable はルームに参加できるかを確認します
func (s *RoomService) checkJoinable(room *models.Room, connId string) error {
	room.Lock()
	defer room.Unlock()
	if room.Closed {
		return ErrRoomNotFound
	}
	if !room.HasPlayer(connId) && len(room.Players) >= s.capacity {
		return ErrRoomFull
	}
	return nil
}

// Leave は接続を参加中のルームから退出させます
// ルームが空になった場合は削除し、ホストが退出した場合は参加順で先頭のプレイヤーにホストを移譲します
func (s *RoomService) Leave(ctx context.Context, connId string) error {
	room, ok := lookupRoom(s.repo, s.sessions, connId)
	if !ok {
		return ErrNotInRoom
	}

	room.Lock()
	defer room.Unlock()

	idx := room.IndexOf(connId)
	if idx < 0 {
		s.sessions.SetRoom(connId, "")
		return ErrNotInRoom
	}
	emptied := s.removePlayerLocked(room, idx)
	s.disp.Unsubscribe(room.Code, connId)
	s.sessions.SetRoom(connId, "")

	if emptied {
		log.Info().Str("room", room.Code).Str("conn", connId).Msg("room deleted as it has no players")
		return nil
	}
	log.Info().Str("room", room.Code).Str("conn", connId).Str("host", room.HostId).Msg("player left")
	s.disp.ToRoom(room.Code, events.UpdatePlayers(room.Snapshot(), room.HostId))
	return nil
}

// Disconnect は接続が切れた際の後処理です
func (s *RoomService) Disconnect(ctx context.Context, connId string) {
	if err := s.Leave(ctx, connId); err != nil && !errors.Is(err, ErrNotInRoom) {
		log.Warn().Err(err).Str("conn", connId).Msg("failed to leave on disconnect")
	}
	s.sessions.Close(connId)
}

// Kick はホストが指定したプレイヤーをルームから退出させます（ホストのみ実行可能）
func (s *RoomService) Kick(ctx context.Context, connId, targetId string) error {
	targetId = strings.TrimSpace(targetId)
	if targetId == "" || targetId == connId {
		return ErrMalformedPayload
	}
	room, ok := lookupRoom(s.repo, s.sessions, connId)
	if !ok {
		return ErrNotInRoom
	}

	room.Lock()
	defer room.Unlock()

	if room.Closed || !room.HasPlayer(connId) {
		return ErrNotInRoom
	}
	if room.HostId != connId {
		return ErrNotHost
	}
	idx := room.IndexOf(targetId)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	s.removePlayerLocked(room, idx)
	s.disp.Unsubscribe(room.Code, targetId)
	s.sessions.SetRoom(targetId, "")

	s.disp.ToConn(targetId, events.KickedOut())
	s.disp.ToRoom(room.Code, events.PlayerListUpdated(room.Snapshot()))

	log.Info().Str("room", room.Code).Str("conn", connId).Str("target", targetId).Msg("player kicked")
	return nil
}

// RoomView はHTTPで返すルームの情報です
type RoomView struct {
	Code      string           `json:"code"`
	HostId    string           `json:"hostId"`
	Players   []models.Player  `json:"players"`
	GameState models.GameState `json:"gameState"`
	CreatedAt int64            `json:"createdAt"`
}

// Get は指定されたルームの情報を取得します
func (s *RoomService) Get(ctx context.Context, rawCode string) (RoomView, bool) {
	room, ok := s.repo.Get(NormalizeCode(rawCode))
	if !ok {
		return RoomView{}, false
	}
	room.Lock()
	defer room.Unlock()
	if room.Closed {
		return RoomView{}, false
	}
	return RoomView{
		Code:      room.Code,
		HostId:    room.HostId,
		Players:   room.Snapshot(),
		GameState: room.State,
		CreatedAt: room.CreatedAt,
	}, true
}

// removePlayerLocked はプレイヤーを取り除き、必要ならホスト移譲またはルーム削除を行います
// ルームが空になった場合はtrueを返します。呼び出し側でルームのロックを保持していること
func (s *RoomService) removePlayerLocked(room *models.Room, idx int) bool {
	removed := room.Players[idx]
	room.Players = append(room.Players[:idx:idx], room.Players[idx+1:]...)

	if len(room.Players) == 0 {
		room.Closed = true
		s.repo.Delete(room.Code, room)
		return true
	}
	if removed.Id == room.HostId {
		for i := range room.Players {
			room.Players[i].IsHost = i == 0
		}
		room.HostId = room.Players[0].Id
		log.Info().Str("room", room.Code).Str("from", removed.Id).Str("to", room.HostId).Msg("host transferred")
	}
	return false
}

// lookupRoom は接続が参加しているルームを返します
// セッションに記録されたコードを優先し、無い場合はストアを走査します
func lookupRoom(r repo.RoomRepo, reg *session.Registry, connId string) (*models.Room, bool) {
	if code := reg.Room(connId); code != "" {
		if room, ok := r.Get(code); ok {
			return room, true
		}
	}
	return r.FindByMember(connId)
}
