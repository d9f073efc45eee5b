package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/partyroom/partyroom/backend/api-server/internal/events"
	"github.com/partyroom/partyroom/backend/api-server/internal/idgen"
	"github.com/partyroom/partyroom/backend/api-server/internal/models"
	"github.com/partyroom/partyroom/backend/api-server/internal/service"
	"github.com/partyroom/partyroom/backend/api-server/internal/session"
)

const maxMessageSize = 8 << 10 // 受信メッセージの最大サイズ（8KB）

// WebSocketHandler はWebSocket接続を処理するハンドラー
type WebSocketHandler struct {
	rooms    *service.RoomService // ルームのライフサイクル
	games    *service.GameService // ゲームモードの進行
	sessions *session.Registry    // 接続ごとのセッション
	hub      *RoomHub             // WebSocket接続を管理するハブ
	upgrader websocket.Upgrader   // HTTPからWebSocketへのアップグレーダー
}

// NewWebSocketHandler は新しいWebSocketHandlerを作成します
// allowedOriginsに"*"を含めると全てのOriginを許可します
func NewWebSocketHandler(rooms *service.RoomService, games *service.GameService, reg *session.Registry, hub *RoomHub, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		rooms:    rooms,
		games:    games,
		sessions: reg,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // ブラウザ以外のクライアント
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

// HandleWebSocket はWebSocket接続を処理します
// 接続後、以下の処理を行います:
// 1. HTTPからWebSocketへのアップグレード
// 2. ハンドシェイクのクエリからセッションを作成し、クライアントを登録
// 3. メッセージ受信ループの開始
// 4. 切断時の自動退出処理とクリーンアップ
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	profile := session.ProfileFromQuery(r.URL.Query())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connId := idgen.NewConnID()
	h.sessions.Open(connId, profile)
	client := h.hub.register(connId, conn)
	go client.writePump()

	defer func() {
		// 切断時にルームから退出させ、残りの参加者に通知する
		h.rooms.Disconnect(context.Background(), connId)
		h.hub.unregister(connId)
		log.Info().Str("conn", connId).Msg("websocket disconnected")
	}()

	log.Info().Str("conn", connId).Str("remote", r.RemoteAddr).Msg("websocket connected")

	conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", connId).Msg("websocket read error")
			}
			return
		}
		var cmd events.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Debug().Err(err).Str("conn", connId).Msg("ignoring malformed message")
			continue
		}
		h.dispatch(connId, cmd)
	}
}

// dispatch はコマンドを処理し、必要な場合はエラーを送信者に返します
func (h *WebSocketHandler) dispatch(connId string, cmd events.Command) {
	if cmd.Type == events.CmdRequestHint {
		// ヒント生成は時間がかかるため受信ループを止めない
		go func() {
			h.report(connId, cmd, h.handle(context.Background(), connId, cmd))
		}()
		return
	}
	h.report(connId, cmd, h.handle(context.Background(), connId, cmd))
}

func (h *WebSocketHandler) report(connId string, cmd events.Command, err error) {
	if err == nil {
		return
	}
	if service.IsUserFacing(err) {
		h.hub.ToConn(connId, events.Error(err.Error()))
		return
	}
	log.Debug().Err(err).Str("conn", connId).Str("type", cmd.Type).Msg("command ignored")
}

// handle はコマンドの種類に応じてサービスを呼び出します
// 不正なペイロードは service.ErrMalformedPayload として扱います
func (h *WebSocketHandler) handle(ctx context.Context, connId string, cmd events.Command) error {
	switch cmd.Type {
	case events.CmdCreateRoom:
		var p events.CreateRoomPayload
		if err := cmd.DecodeOptional(&p); err != nil {
			return malformed(err)
		}
		_, err := h.rooms.Create(ctx, connId, models.Profile{Name: p.Name, Avatar: p.Avatar})
		return err

	case events.CmdJoinRoom:
		code, err := cmd.String()
		if err != nil {
			return malformed(err)
		}
		return h.rooms.Join(ctx, connId, code)

	case events.CmdLeaveRoom:
		return h.rooms.Leave(ctx, connId)

	case events.CmdStartGame:
		var p events.StartGamePayload
		if err := cmd.Decode(&p); err != nil {
			return malformed(err)
		}
		return h.games.Start(ctx, connId, p.Mode, p.Category)

	case events.CmdSubmitCharacter:
		var p events.SubmitCharacterPayload
		if err := cmd.Decode(&p); err != nil {
			return malformed(err)
		}
		return h.games.SubmitCharacter(ctx, connId, p.Team, p.Character)

	case events.CmdRequestHint:
		var p events.RequestHintPayload
		if err := cmd.Decode(&p); err != nil {
			return malformed(err)
		}
		return h.games.RequestHint(ctx, connId, p.Team)

	case events.CmdKickPlayer:
		target, err := cmd.KickTarget()
		if err != nil {
			return malformed(err)
		}
		return h.rooms.Kick(ctx, connId, target)

	case events.CmdPlayCard:
		var p events.PlayCardPayload
		if err := cmd.DecodeOptional(&p); err != nil {
			return malformed(err)
		}
		return h.games.PlayCard(ctx, connId, p.CardId, p.TargetId)

	case events.CmdPing:
		// ping/pongで接続を維持
		h.hub.ToConn(connId, events.Pong())
		return nil
	}
	log.Debug().Str("conn", connId).Str("type", cmd.Type).Msg("unknown message type")
	return nil
}

func malformed(err error) error {
	return errors.Join(service.ErrMalformedPayload, err)
}
