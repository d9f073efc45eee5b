package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/partyroom/partyroom/backend/api-server/internal/repo"
)

type countingOracle struct {
	calls int
	err   error
}

func (c *countingOracle) Hint(ctx context.Context, name string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "🤖 Referee: about " + name, nil
}

func newRedisCache(t *testing.T) (*repo.RedisHintRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return repo.NewRedisHintRepo(rdb), mr
}

func TestCachedOracle_HitsCacheOnSecondCall(t *testing.T) {
	cache, _ := newRedisCache(t)
	next := &countingOracle{}
	o := NewCachedOracle(next, cache, time.Hour)
	ctx := context.Background()

	first, err := o.Hint(ctx, "Batman")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := o.Hint(ctx, "batman")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != second {
		t.Errorf("cached hint = %q, want %q", second, first)
	}
	if next.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", next.calls)
	}
}

func TestCachedOracle_ErrorsAreNotCached(t *testing.T) {
	cache, mr := newRedisCache(t)
	next := &countingOracle{err: errors.New("rate limited")}
	o := NewCachedOracle(next, cache, time.Hour)

	if _, err := o.Hint(context.Background(), "Batman"); err == nil {
		t.Fatalf("expected upstream error")
	}
	if mr.Exists("hints:batman") {
		t.Errorf("failed hints must not be cached")
	}
}

func TestCachedOracle_CacheDownStillAnswers(t *testing.T) {
	cache, mr := newRedisCache(t)
	mr.Close()
	next := &countingOracle{}
	o := NewCachedOracle(next, cache, time.Hour)

	hint, err := o.Hint(context.Background(), "Zorro")
	if err != nil {
		t.Fatalf("Hint: %v", err)
	}
	if hint != "🤖 Referee: about Zorro" || next.calls != 1 {
		t.Errorf("hint = %q calls = %d", hint, next.calls)
	}
}
