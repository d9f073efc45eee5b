package service

import "github.com/partyroom/partyroom/backend/api-server/internal/events"

// Dispatcher はイベントの配信を担当します
// ゲームロジックは持たず、ルーム全体への送信と特定の接続への送信のみを提供します
type Dispatcher interface {
	Subscribe(code, connId string)
	Unsubscribe(code, connId string)
	ToRoom(code string, ev events.Event)
	ToConn(connId string, ev events.Event)
}
