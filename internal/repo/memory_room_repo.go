package repo

import (
	"sync"

	"github.com/partyroom/partyroom/backend/api-server/internal/models"
)

// MemoryRoomRepo はプロセス内のメモリにルームを保持します
// 再起動すると全てのルームは失われます
type MemoryRoomRepo struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room
}

func NewMemoryRoomRepo() *MemoryRoomRepo {
	return &MemoryRoomRepo{rooms: make(map[string]*models.Room)}
}

func (m *MemoryRoomRepo) Create(room *models.Room) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[room.Code]; exists {
		return false
	}
	m.rooms[room.Code] = room
	return true
}

func (m *MemoryRoomRepo) Get(code string) (*models.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[code]
	return room, ok
}

func (m *MemoryRoomRepo) Delete(code string, room *models.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.rooms[code]; ok && current == room {
		delete(m.rooms, code)
	}
}

func (m *MemoryRoomRepo) Exists(code string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[code]
	return ok
}

// FindByMember はプレイヤーが参加しているルームを探します
// ストアのロックを持ったままルームのロックを取得することはありません
// ルーム一覧をコピーしてストアのロックを解放してから、各ルームを順にロックします
func (m *MemoryRoomRepo) FindByMember(playerId string) (*models.Room, bool) {
	m.mu.RLock()
	rooms := make([]*models.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		r.Lock()
		member := !r.Closed && r.HasPlayer(playerId)
		r.Unlock()
		if member {
			return r, true
		}
	}
	return nil, false
}

func (m *MemoryRoomRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
