// Package models はアプリケーションで使用するデータ構造を定義します
package models

import "sync"

// Profile は接続時（ハンドシェイク）にクライアントから渡されるプロフィールです
// 未指定の項目はゼロ値のまま渡され、session パッケージでデフォルト値に置き換えられます
type Profile struct {
	Name   string // 表示名
	Avatar string // アバター（絵文字1文字など）
	Coins  *int   // コイン残高（未指定の場合nil）
	IsVip  bool   // VIPフラグ
}

// Player はルームに参加するプレイヤーの情報を表します
type Player struct {
	Id     string `json:"id"`             // 接続IDと同一の識別子
	Name   string `json:"name"`           // 表示名
	Avatar string `json:"avatar"`         // アバター
	Coins  int    `json:"coins"`          // コイン残高
	IsVip  bool   `json:"isVip"`          // VIPフラグ
	Score  int    `json:"score"`          // スコア（0から開始）
	IsHost bool   `json:"isHost"`         // ホストかどうか
	Team   Team   `json:"team,omitempty"` // チームモードでの所属（未割り当ての場合は空）
}

// GameState はルームの状態を表します
type GameState string

const (
	StateLobby    GameState = "LOBBY"
	StateImposter GameState = "IMPOSTER"
	StateTeams    GameState = "TEAMS"
)

// Mode はクライアントが指定するゲームモードです
type Mode string

const (
	ModeImposter Mode = "imposter"
	ModeTeams    Mode = "teams"
)

// ParseMode は文字列をModeに変換します
// 未知のモードの場合はfalseを返します
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeImposter, ModeTeams:
		return Mode(s), true
	}
	return "", false
}

// State はモードに対応するルーム状態を返します
func (m Mode) State() GameState {
	switch m {
	case ModeImposter:
		return StateImposter
	case ModeTeams:
		return StateTeams
	}
	return StateLobby
}

// Team はチームモードのチームです
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// ParseTeam は文字列をTeamに変換します
func ParseTeam(s string) (Team, bool) {
	switch Team(s) {
	case TeamRed, TeamBlue:
		return Team(s), true
	}
	return "", false
}

// Opponent は相手チームを返します
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// ModeData はゲームモードごとの状態です
// 実装は ImposterData と TeamsData のみです
type ModeData interface {
	Mode() Mode
}

// ImposterData はインポスターモードの状態を表します
// 役割（imposter/civilian）はプレイヤーごとに保存せず、送信時に計算します
type ImposterData struct {
	RoundId    string // ラウンドID（ULID）
	SecretWord string // お題の単語
	ImposterId string // インポスターのプレイヤーID
	Category   string // カテゴリキー
	TimeLeft   int    // 制限時間（秒）
}

func (*ImposterData) Mode() Mode { return ModeImposter }

// TeamsData はチームモードの状態を表します
type TeamsData struct {
	RoundId     string          // ラウンドID（ULID）
	RedTeam     []string        // 赤チームのプレイヤーID（分割時点の順序）
	BlueTeam    []string        // 青チームのプレイヤーID
	Selections  map[Team]string // チームごとに提出されたキャラクター
	CurrentTurn Team            // 現在のターンのチーム
	Started     bool            // 両チームが提出済みでゲームプレイ開始済みか
}

func (*TeamsData) Mode() Mode { return ModeTeams }

// Room はゲームルームの情報を表します
// Playersの順序は参加順で、ホスト移譲の順序を決めます
type Room struct {
	Code        string    // ルームコード
	HostId      string    // ホストのプレイヤーID
	Players     []Player  // 参加者（参加順）
	State       GameState // ルームの状態
	ModeData    ModeData  // 現在のゲームモードの状態（ロビーではnil）
	CreatedAt   int64     // ルーム作成日時（Unixタイムスタンプ）
	HintPending bool      // ヒント生成中かどうか
	Closed      bool      // 空になりストアから削除済みかどうか

	mu sync.Mutex
}

// Lock はルームのロックを取得します
func (r *Room) Lock() { r.mu.Lock() }

// Unlock はルームのロックを解放します
func (r *Room) Unlock() { r.mu.Unlock() }

// IndexOf はプレイヤーの位置を返します。存在しない場合は-1
func (r *Room) IndexOf(playerId string) int {
	for i := range r.Players {
		if r.Players[i].Id == playerId {
			return i
		}
	}
	return -1
}

// HasPlayer はプレイヤーが参加しているかを返します
func (r *Room) HasPlayer(playerId string) bool {
	return r.IndexOf(playerId) >= 0
}

// Snapshot は参加者一覧のコピーを返します
// ロックの外でシリアライズするために使います
func (r *Room) Snapshot() []Player {
	out := make([]Player, len(r.Players))
	copy(out, r.Players)
	return out
}

// Player はIDでプレイヤーを取得します
func (r *Room) Player(playerId string) (Player, bool) {
	if i := r.IndexOf(playerId); i >= 0 {
		return r.Players[i], true
	}
	return Player{}, false
}
