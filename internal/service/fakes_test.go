package service

import (
	"context"
	"sync"
	"testing"

	"github.com/partyroom/partyroom/backend/api-server/internal/events"
	"github.com/partyroom/partyroom/backend/api-server/internal/models"
	"github.com/partyroom/partyroom/backend/api-server/internal/repo"
	"github.com/partyroom/partyroom/backend/api-server/internal/session"
)

// sent は fakeDispatcher が記録した1件の送信です
type sent struct {
	room string // ToRoomの場合のルームコード
	conn string // ToConnの場合の接続ID
	ev   events.Event
}

// fakeDispatcher は送信内容を記録するだけのDispatcherです
type fakeDispatcher struct {
	mu   sync.Mutex
	subs map[string]map[string]bool
	log  []sent
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{subs: make(map[string]map[string]bool)}
}

func (d *fakeDispatcher) Subscribe(code, connId string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.subs[code] == nil {
		d.subs[code] = make(map[string]bool)
	}
	d.subs[code][connId] = true
}

func (d *fakeDispatcher) Unsubscribe(code, connId string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.subs[code], connId)
	if len(d.subs[code]) == 0 {
		delete(d.subs, code)
	}
}

func (d *fakeDispatcher) ToRoom(code string, ev events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, sent{room: code, ev: ev})
}

func (d *fakeDispatcher) ToConn(connId string, ev events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, sent{conn: connId, ev: ev})
}

func (d *fakeDispatcher) subscribed(code, connId string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.subs[code][connId]
}

// byType は指定したイベント名の送信を古い順に返します
func (d *fakeDispatcher) byType(typ string) []sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []sent
	for _, s := range d.log {
		if s.ev.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

func (d *fakeDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = nil
}

// fixedCodes は決まった順にコードを返すIDGeneratorです
type fixedCodes struct {
	mu    sync.Mutex
	codes []string
}

func (f *fixedCodes) New() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return "ZZZZ", nil
	}
	c := f.codes[0]
	if len(f.codes) > 1 {
		f.codes = f.codes[1:]
	}
	return c, nil
}

type harness struct {
	repo  *repo.MemoryRoomRepo
	reg   *session.Registry
	disp  *fakeDispatcher
	rooms *RoomService
	games *GameService
}

func newHarness(t *testing.T, oracle HintOracle, codes ...string) *harness {
	t.Helper()
	h := &harness{
		repo: repo.NewMemoryRoomRepo(),
		reg:  session.NewRegistry(),
		disp: newFakeDispatcher(),
	}
	var idg IDGenerator = NewRoomCodeGenerator()
	if len(codes) > 0 {
		idg = &fixedCodes{codes: codes}
	}
	h.rooms = NewRoomService(h.repo, h.reg, h.disp, idg, 0)
	h.games = NewGameService(h.repo, h.reg, h.disp, oracle, nil, 0)
	return h
}

// connect は接続を開いてセッションを作ります
func (h *harness) connect(connId, name string) {
	h.reg.Open(connId, models.Profile{Name: name})
}

// roomWith はホストがルームを作成し、残りの接続を参加させます
func (h *harness) roomWith(t *testing.T, host string, others ...string) string {
	t.Helper()
	h.connect(host, host)
	code, err := h.rooms.Create(context.Background(), host, models.Profile{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, id := range others {
		h.connect(id, id)
		if err := h.rooms.Join(context.Background(), id, code); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	return code
}

func (h *harness) room(t *testing.T, code string) *models.Room {
	t.Helper()
	r, ok := h.repo.Get(code)
	if !ok {
		t.Fatalf("room %s not found", code)
	}
	return r
}

// hostCount はホストフラグが立っているプレイヤーの数を返します
func hostCount(players []models.Player) int {
	n := 0
	for _, p := range players {
		if p.IsHost {
			n++
		}
	}
	return n
}
