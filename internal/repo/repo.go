package repo

import (
	"context"
	"time"

	"github.com/partyroom/partyroom/backend/api-server/internal/models"
)

// RoomRepo はルームコードからルームを引くストアです
type RoomRepo interface {
	// Create は同じコードのルームが存在しない場合のみ登録します
	Create(room *models.Room) bool
	Get(code string) (*models.Room, bool)
	// Delete は登録されているルームがroomと同一の場合のみ削除します
	Delete(code string, room *models.Room)
	Exists(code string) bool
	FindByMember(playerId string) (*models.Room, bool)
	Count() int
}

// HintCache はキャラクター名からヒント文へのキャッシュです
type HintCache interface {
	GetHint(ctx context.Context, name string) (string, bool, error)
	SetHint(ctx context.Context, name, hint string, ttl time.Duration) error
}
