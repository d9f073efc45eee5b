package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// HintOracle はキャラクター名からヒント文を生成する外部機能です
type HintOracle interface {
	Hint(ctx context.Context, name string) (string, error)
}

// FallbackHint はヒント生成が使えない場合の決定的なヒント文を返します
func FallbackHint(name string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return fmt.Sprintf("🤖 Referee: the character has %d letters.", n)
}
