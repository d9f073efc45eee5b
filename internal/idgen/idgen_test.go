package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func TestNewRoomCode(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := NewRoomCode()
		if err != nil {
			t.Fatalf("NewRoomCode error: %v", err)
		}
		if len(code) != RoomCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), RoomCodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(roomCodeChars, c) {
				t.Fatalf("code %q contains %q", code, c)
			}
		}
		if strings.ToUpper(code) != code {
			t.Fatalf("code %q is not upper case", code)
		}
	}
}

func TestNewULID(t *testing.T) {
	a, b := NewULID(), NewULID()
	if _, err := ulid.Parse(a); err != nil {
		t.Errorf("invalid ulid %q: %v", a, err)
	}
	if a >= b {
		t.Errorf("ulids not monotonic: %q >= %q", a, b)
	}
}

func TestNewConnID(t *testing.T) {
	id := NewConnID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("invalid conn id %q: %v", id, err)
	}
	if id == NewConnID() {
		t.Errorf("conn ids should differ")
	}
}
