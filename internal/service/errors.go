package service

import "errors"

// カスタムエラー定義
var (
	ErrRoomNotFound             = errors.New("room not found")
	ErrRoomFull                 = errors.New("room is full")
	ErrNotHost                  = errors.New("forbidden: only the host can do that")
	ErrMalformedPayload         = errors.New("missing or malformed payload")
	ErrNotInRoom                = errors.New("connection is not in a room")
	ErrPlayerNotFound           = errors.New("player not found")
	ErrWrongMode                = errors.New("no matching game in progress")
	ErrHintPending              = errors.New("a hint is already being generated")
	ErrSessionNotFound          = errors.New("session not found")
	ErrRoomCodeGenerationFailed = errors.New("failed to generate unique room code after multiple attempts")
)

// IsUserFacing はクライアントにerrorイベントとして返すべきエラーかどうかを返します
// それ以外（不正なペイロードなど）は黙って無視します
func IsUserFacing(err error) bool {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrNotHost),
		errors.Is(err, ErrPlayerNotFound),
		errors.Is(err, ErrHintPending),
		errors.Is(err, ErrRoomCodeGenerationFailed):
		return true
	}
	return false
}
