package events

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrEmptyPayload はペイロードが無い、またはnullの場合に返します
var ErrEmptyPayload = errors.New("empty payload")

// Command はクライアントから受信する1つのメッセージです
type Command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateRoomPayload はホストのプロフィールを上書きする場合にのみ指定します
type CreateRoomPayload struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type StartGamePayload struct {
	Mode     string `json:"mode"`
	Category string `json:"category"`
}

type SubmitCharacterPayload struct {
	Team      string `json:"team"`
	Character string `json:"character"`
}

type RequestHintPayload struct {
	Team string `json:"team"`
}

type KickPayload struct {
	TargetId string `json:"targetId"`
}

type PlayCardPayload struct {
	CardId   string `json:"cardId"`
	TargetId string `json:"targetId"`
}

// Decode はペイロードをdstにデコードします
func (c Command) Decode(dst any) error {
	if c.empty() {
		return ErrEmptyPayload
	}
	return json.Unmarshal(c.Payload, dst)
}

// DecodeOptional はペイロードがある場合のみデコードします
func (c Command) DecodeOptional(dst any) error {
	if c.empty() {
		return nil
	}
	return json.Unmarshal(c.Payload, dst)
}

// String は文字列ペイロード（例: join_room のルームコード）を取り出します
func (c Command) String() (string, error) {
	var s string
	if err := c.Decode(&s); err != nil {
		return "", err
	}
	return s, nil
}

// KickTarget は kick_player の対象IDを取り出します
// 文字列とオブジェクト {"targetId": ...} の両方を受け付けます
func (c Command) KickTarget() (string, error) {
	if c.empty() {
		return "", ErrEmptyPayload
	}
	if bytes.TrimSpace(c.Payload)[0] == '"' {
		return c.String()
	}
	var p KickPayload
	if err := json.Unmarshal(c.Payload, &p); err != nil {
		return "", err
	}
	return p.TargetId, nil
}

func (c Command) empty() bool {
	trimmed := bytes.TrimSpace(c.Payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
