package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RoomCodeLength はルームコードの文字数
const RoomCodeLength = 4

const roomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID はゲームラウンドのIDを生成します
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
}

// NewConnID はWebSocket接続のIDを生成します（プレイヤーIDとしても使われます）
func NewConnID() string {
	return uuid.NewString()
}

// NewRoomCode は英大文字と数字からなる4文字のルームコードを生成します
// 既存ルームとの重複チェックは行いません（呼び出し側でリトライします）
func NewRoomCode() (string, error) {
	const n = byte(len(roomCodeChars))
	// 252 = 36*7 を超える値は捨てて偏りをなくす
	const limit = 255 - (255 % n)

	out := make([]byte, 0, RoomCodeLength)
	buf := make([]byte, RoomCodeLength*2)
	for len(out) < RoomCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, roomCodeChars[b%n])
			if len(out) == RoomCodeLength {
				break
			}
		}
	}
	return string(out), nil
}
