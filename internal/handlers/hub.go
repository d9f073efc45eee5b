package handlers

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/partyroom/partyroom/backend/api-server/internal/events"
)

const (
	sendBufferSize = 32               // 接続ごとの送信キューの長さ
	writeWait      = 10 * time.Second // 1メッセージの書き込みタイムアウト
)

// RoomHub はWebSocket接続とルームの購読関係を管理します
// service.Dispatcher を実装し、ゲームロジックからのイベントを各接続の送信キューに積みます
// スレッドセーフな実装により、複数のgoroutineから同時にアクセス可能です
type RoomHub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // 接続IDをキーとしたクライアント
	rooms   map[string]map[string]struct{} // ルームコードごとの購読者
}

// Client は1つのWebSocket接続を表します
// 送信は writePump のみが行い、他のgoroutineは send に積むだけです
type Client struct {
	connId string
	conn   *websocket.Conn
	send   chan events.Event
	closed bool // send をクローズ済みか（hub.mu で保護）
}

// NewRoomHub は新しいRoomHubを作成します
func NewRoomHub() *RoomHub {
	return &RoomHub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// register は接続を登録します
func (hub *RoomHub) register(connId string, conn *websocket.Conn) *Client {
	c := &Client{
		connId: connId,
		conn:   conn,
		send:   make(chan events.Event, sendBufferSize),
	}
	hub.mu.Lock()
	hub.clients[connId] = c
	hub.mu.Unlock()
	return c
}

// unregister は接続の登録を解除し、送信キューを閉じます
// 購読もすべて取り除きます
func (hub *RoomHub) unregister(connId string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if c, ok := hub.clients[connId]; ok {
		delete(hub.clients, connId)
		if !c.closed {
			c.closed = true
			close(c.send)
		}
	}
	for code, members := range hub.rooms {
		delete(members, connId)
		if len(members) == 0 {
			delete(hub.rooms, code)
		}
	}
}

// Subscribe は接続をルームの配信対象に加えます
func (hub *RoomHub) Subscribe(code, connId string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	members, ok := hub.rooms[code]
	if !ok {
		members = make(map[string]struct{})
		hub.rooms[code] = members
	}
	members[connId] = struct{}{}
}

// Unsubscribe は接続をルームの配信対象から外します
func (hub *RoomHub) Unsubscribe(code, connId string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if members, ok := hub.rooms[code]; ok {
		delete(members, connId)
		if len(members) == 0 {
			delete(hub.rooms, code)
		}
	}
}

// ToRoom はルームの全購読者にイベントを送信します
func (hub *RoomHub) ToRoom(code string, ev events.Event) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for connId := range hub.rooms[code] {
		if c, ok := hub.clients[connId]; ok {
			c.enqueue(ev)
		}
	}
}

// ToConn は特定の接続にイベントを送信します
func (hub *RoomHub) ToConn(connId string, ev events.Event) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if c, ok := hub.clients[connId]; ok {
		c.enqueue(ev)
	}
}

// Members はルームの購読者数を返します
func (hub *RoomHub) Members(code string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.rooms[code])
}

// enqueue はイベントを送信キューに積みます。呼び出し側で hub.mu を保持していること
// キューが詰まっている接続は読み込み側のエラーで切断処理に入るよう、接続を閉じます
func (c *Client) enqueue(ev events.Event) {
	if c.closed {
		return
	}
	select {
	case c.send <- ev:
	default:
		log.Warn().Str("conn", c.connId).Str("type", ev.Type).Msg("send buffer full, dropping connection")
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// writePump は送信キューのイベントを順に書き込みます
// 送信キューが閉じられるか書き込みに失敗すると終了します
func (c *Client) writePump() {
	defer c.conn.Close()

	for ev := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Str("conn", c.connId).Msg("websocket write failed")
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
