package handlers

import (
	"fmt"

	"github.com/partyroom/partyroom/backend/api-server/internal/idgen"
)

// validateRoomCode はルームコードのバリデーションを行います
// 英大文字と数字の4文字のみを受け付けます
func validateRoomCode(code string) error {
	if code == "" {
		return fmt.Errorf("room code required")
	}
	if len(code) != idgen.RoomCodeLength {
		return fmt.Errorf("room code must be %d characters", idgen.RoomCodeLength)
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return fmt.Errorf("room code must be alphanumeric")
		}
	}
	return nil
}
