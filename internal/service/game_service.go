package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partyroom/partyroom/backend/api-server/internal/events"
	"github.com/partyroom/partyroom/backend/api-server/internal/idgen"
	"github.com/partyroom/partyroom/backend/api-server/internal/models"
	"github.com/partyroom/partyroom/backend/api-server/internal/repo"
	"github.com/partyroom/partyroom/backend/api-server/internal/session"
)

const (
	HiddenWord       = "???" // インポスターに送る伏せ字
	ImposterTimeLeft = 60    // インポスターモードの制限時間（秒）

	RoleImposter = "imposter"
	RoleCivilian = "civilian"

	DefaultHintTimeout = 8 * time.Second
)

// GameService はゲームモード（インポスター/チーム）の進行を担当します
type GameService struct {
	repo        repo.RoomRepo
	sessions    *session.Registry
	disp        Dispatcher
	oracle      HintOracle // nilの場合は常にフォールバック
	words       WordBank
	hintTimeout time.Duration
}

// NewGameService は新しいGameServiceを作成します
func NewGameService(r repo.RoomRepo, reg *session.Registry, d Dispatcher, oracle HintOracle, words WordBank, hintTimeout time.Duration) *GameService {
	if words == nil {
		words = DefaultWords
	}
	if hintTimeout <= 0 {
		hintTimeout = DefaultHintTimeout
	}
	return &GameService{repo: r, sessions: reg, disp: d, oracle: oracle, words: words, hintTimeout: hintTimeout}
}

// Start はゲームを開始します（ホストのみ実行可能）
func (g *GameService) Start(ctx context.Context, connId, rawMode, category string) error {
	mode, ok := models.ParseMode(strings.ToLower(strings.TrimSpace(rawMode)))
	if !ok {
		return ErrMalformedPayload
	}
	room, ok := lookupRoom(g.repo, g.sessions, connId)
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
	for i := range room.Players {
		room.Players[i].Team = ""
	}
	room.State = mode.State()

	switch mode {
	case models.ModeImposter:
		g.startImposterLocked(room, category)
	case models.ModeTeams:
		g.startTeamsLocked(room)
	}
	log.Info().Str("room", room.Code).Str("mode", string(mode)).Int("players", len(room.Players)).Msg("game started")
	return nil
}

// startImposterLocked はお題とインポスターを決め、プレイヤーごとに内容を変えて送信します
// インポスター本人には単語を伏せ字にしたものだけを送ります
func (g *GameService) startImposterLocked(room *models.Room, category string) {
	key, list := g.words.Resolve(category)
	data := &models.ImposterData{
		RoundId:    idgen.NewULID(),
		SecretWord: list[rand.IntN(len(list))],
		ImposterId: room.Players[rand.IntN(len(room.Players))].Id,
		Category:   key,
		TimeLeft:   ImposterTimeLeft,
	}
	room.ModeData = data

	for _, p := range room.Players {
		g.disp.ToConn(p.Id, events.ImposterStarted(ImposterViewFor(data, p.Id)))
	}
}

// ImposterViewFor は受信者ごとの game_started の内容を作ります
func ImposterViewFor(data *models.ImposterData, playerId string) events.ImposterView {
	v := events.ImposterView{
		RoundId:    data.RoundId,
		Word:       data.SecretWord,
		ImposterId: data.ImposterId,
		TimeLeft:   data.TimeLeft,
		Category:   data.Category,
		Role:       RoleCivilian,
	}
	if playerId == data.ImposterId {
		v.Word = HiddenWord
		v.Role = RoleImposter
	}
	return v
}

// startTeamsLocked はプレイヤーをシャッフルして2チームに分けます
// 先頭の半分（切り上げ）が赤チーム、残りが青チームです
func (g *GameService) startTeamsLocked(room *models.Room) {
	order := rand.Perm(len(room.Players))
	half := (len(order) + 1) / 2

	data := &models.TeamsData{
		RoundId:     idgen.NewULID(),
		Selections:  make(map[models.Team]string),
		CurrentTurn: models.TeamRed,
	}
	for n, i := range order {
		if n < half {
			room.Players[i].Team = models.TeamRed
			data.RedTeam = append(data.RedTeam, room.Players[i].Id)
		} else {
			room.Players[i].Team = models.TeamBlue
			data.BlueTeam = append(data.BlueTeam, room.Players[i].Id)
		}
	}
	room.ModeData = data

	g.disp.ToRoom(room.Code, events.TeamsStarted(events.TeamsView{
		RoundId:     data.RoundId,
		RedTeam:     teamPlayers(room, data.RedTeam),
		BlueTeam:    teamPlayers(room, data.BlueTeam),
		CurrentTurn: data.CurrentTurn,
	}))
}

func teamPlayers(room *models.Room, ids []string) []models.Player {
	out := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := room.Player(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// SubmitCharacter はチームが選んだキャラクターを記録します
// 両チームが提出した時点でゲームプレイを開始し、最初のターンを通知します
func (g *GameService) SubmitCharacter(ctx context.Context, connId, rawTeam, character string) error {
	team, ok := models.ParseTeam(strings.ToLower(strings.TrimSpace(rawTeam)))
	character = strings.TrimSpace(character)
	if !ok || character == "" {
		return ErrMalformedPayload
	}
	room, ok := lookupRoom(g.repo, g.sessions, connId)
	if !ok {
		return ErrNotInRoom
	}

	room.Lock()
	defer room.Unlock()

	if room.Closed || !room.HasPlayer(connId) {
		return ErrNotInRoom
	}
	data, ok := room.ModeData.(*models.TeamsData)
	if !ok {
		return ErrWrongMode
	}
	data.Selections[team] = character
	log.Debug().Str("room", room.Code).Str("team", string(team)).Msg("character submitted")

	if data.Started || data.Selections[models.TeamRed] == "" || data.Selections[models.TeamBlue] == "" {
		return nil
	}
	data.Started = true
	g.disp.ToRoom(room.Code, events.StartTeamGameplay(data.CurrentTurn))
	log.Info().Str("room", room.Code).Str("turn", string(data.CurrentTurn)).Msg("team gameplay started")
	return nil
}

// RequestHint は相手チームのキャラクターについてのヒントをルーム全体に送信します
// ヒント生成中はルームのロックを解放し、同じルームでの同時リクエストは ErrHintPending で拒否します
func (g *GameService) RequestHint(ctx context.Context, connId, rawTeam string) error {
	team, ok := models.ParseTeam(strings.ToLower(strings.TrimSpace(rawTeam)))
	if !ok {
		return ErrMalformedPayload
	}
	room, ok := lookupRoom(g.repo, g.sessions, connId)
	if !ok {
		return ErrNotInRoom
	}

	room.Lock()
	if room.Closed || !room.HasPlayer(connId) {
		room.Unlock()
		return ErrNotInRoom
	}
	data, ok := room.ModeData.(*models.TeamsData)
	if !ok {
		room.Unlock()
		return ErrWrongMode
	}
	target := data.Selections[team.Opponent()]
	if target == "" {
		room.Unlock()
		return nil
	}
	if room.HintPending {
		room.Unlock()
		return ErrHintPending
	}
	room.HintPending = true
	room.Unlock()

	text := g.hint(ctx, room.Code, target)

	room.Lock()
	defer room.Unlock()
	// HintPending を立てられるのは1つのリクエストだけなので、ここで必ず解除する
	room.HintPending = false
	if room.Closed || room.ModeData != models.ModeData(data) {
		// 生成中にルームが削除されたか、新しいゲームが始まった
		log.Debug().Str("room", room.Code).Str("round", data.RoundId).Msg("discarding hint for a finished round")
		return nil
	}
	g.disp.ToRoom(room.Code, events.HintResponse(text))
	return nil
}

// hint はヒント生成を呼び出し、失敗・タイムアウト時はフォールバックの文を返します
func (g *GameService) hint(ctx context.Context, code, name string) string {
	if g.oracle == nil {
		return FallbackHint(name)
	}
	ctx, cancel := context.WithTimeout(ctx, g.hintTimeout)
	defer cancel()

	text, err := g.oracle.Hint(ctx, name)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warn().Err(err).Str("room", code).Msg("hint oracle failed, using fallback")
		return FallbackHint(name)
	}
	return text
}

// PlayCard はカードの使用をルーム全体に通知します
// ゲーム状態は変更しません
func (g *GameService) PlayCard(ctx context.Context, connId, cardId, targetId string) error {
	room, ok := lookupRoom(g.repo, g.sessions, connId)
	if !ok {
		return ErrNotInRoom
	}

	room.Lock()
	defer room.Unlock()

	player, ok := room.Player(connId)
	if room.Closed || !ok {
		return ErrNotInRoom
	}
	msg := fmt.Sprintf("🃏 %s played a card", player.Name)
	if target, ok := room.Player(strings.TrimSpace(targetId)); ok {
		msg = fmt.Sprintf("🃏 %s played a card on %s", player.Name, target.Name)
	}
	log.Debug().Str("room", room.Code).Str("card", cardId).Str("target", targetId).Msg("card played")
	g.disp.ToRoom(room.Code, events.Toast(msg))
	return nil
}
