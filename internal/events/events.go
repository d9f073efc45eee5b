// Package events はWebSocketでやり取りするメッセージの形式を定義します
// 送信イベントはこのパッケージのコンストラクタ経由でのみ作ることで、イベント名とペイロードの組み合わせを固定します
package events

import (
	"github.com/partyroom/partyroom/backend/api-server/internal/models"
)

// クライアント→サーバーのコマンド
const (
	CmdCreateRoom      = "create_room"
	CmdJoinRoom        = "join_room"
	CmdLeaveRoom       = "leave_room"
	CmdStartGame       = "start_game"
	CmdSubmitCharacter = "submit_character"
	CmdRequestHint     = "request_hint"
	CmdKickPlayer      = "kick_player"
	CmdPlayCard        = "play_card"
	CmdPing            = "ping"
)

// サーバー→クライアントのイベント
const (
	EvRoomCreated       = "room_created"
	EvJoinedSuccess     = "joined_success"
	EvUpdatePlayers     = "update_players"
	EvGameStarted       = "game_started"
	EvStartTeamGameplay = "start_team_gameplay"
	EvHintResponse      = "ai_hint_response"
	EvPlayerListUpdated = "player_list_updated"
	EvKickedOut         = "kicked_out"
	EvToast             = "toast_notification"
	EvError             = "error"
	EvPong              = "pong"
)

// Event はサーバーから送信する1つのメッセージです
type Event struct {
	Type    string `json:"type"`    // イベント名
	Payload any    `json:"payload"` // イベントごとのペイロード
}

type RoomCreatedPayload struct {
	Code    string          `json:"code"`
	Players []models.Player `json:"players"`
	HostId  string          `json:"hostId"`
	IsHost  bool            `json:"isHost"`
}

type JoinedSuccessPayload struct {
	Code    string          `json:"code"`
	Players []models.Player `json:"players"`
	IsHost  bool            `json:"isHost"`
}

type UpdatePlayersPayload struct {
	Players []models.Player `json:"players"`
	HostId  string          `json:"hostId"`
}

type PlayerListPayload struct {
	Players []models.Player `json:"players"`
}

type GameStartedPayload struct {
	Mode models.Mode `json:"mode"`
	Data any         `json:"data"`
}

// ImposterView はインポスターモード開始時に各プレイヤーへ個別に送る内容です
type ImposterView struct {
	RoundId    string `json:"roundId"`
	Word       string `json:"word"`
	ImposterId string `json:"imposterId"`
	TimeLeft   int    `json:"timeLeft"`
	Category   string `json:"category"`
	Role       string `json:"role"`
}

// TeamsView はチームモード開始時にルーム全体へ送る内容です
type TeamsView struct {
	RoundId     string          `json:"roundId"`
	RedTeam     []models.Player `json:"redTeam"`
	BlueTeam    []models.Player `json:"blueTeam"`
	CurrentTurn models.Team     `json:"currentTurn"`
}

type TurnPayload struct {
	Turn models.Team `json:"turn"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type emptyPayload struct{}

func RoomCreated(code string, players []models.Player, hostId string) Event {
	return Event{Type: EvRoomCreated, Payload: RoomCreatedPayload{Code: code, Players: players, HostId: hostId, IsHost: true}}
}

func JoinedSuccess(code string, players []models.Player) Event {
	return Event{Type: EvJoinedSuccess, Payload: JoinedSuccessPayload{Code: code, Players: players, IsHost: false}}
}

func UpdatePlayers(players []models.Player, hostId string) Event {
	return Event{Type: EvUpdatePlayers, Payload: UpdatePlayersPayload{Players: players, HostId: hostId}}
}

func PlayerListUpdated(players []models.Player) Event {
	return Event{Type: EvPlayerListUpdated, Payload: PlayerListPayload{Players: players}}
}

func ImposterStarted(v ImposterView) Event {
	return Event{Type: EvGameStarted, Payload: GameStartedPayload{Mode: models.ModeImposter, Data: v}}
}

func TeamsStarted(v TeamsView) Event {
	return Event{Type: EvGameStarted, Payload: GameStartedPayload{Mode: models.ModeTeams, Data: v}}
}

func StartTeamGameplay(turn models.Team) Event {
	return Event{Type: EvStartTeamGameplay, Payload: TurnPayload{Turn: turn}}
}

func HintResponse(text string) Event {
	return Event{Type: EvHintResponse, Payload: TextPayload{Text: text}}
}

func KickedOut() Event {
	return Event{Type: EvKickedOut, Payload: emptyPayload{}}
}

func Toast(message string) Event {
	return Event{Type: EvToast, Payload: MessagePayload{Message: message}}
}

func Error(message string) Event {
	return Event{Type: EvError, Payload: MessagePayload{Message: message}}
}

func Pong() Event {
	return Event{Type: EvPong, Payload: emptyPayload{}}
}
