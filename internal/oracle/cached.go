package oracle

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partyroom/partyroom/backend/api-server/internal/repo"
	"github.com/partyroom/partyroom/backend/api-server/internal/service"
)

// CachedOracle は生成済みのヒントをキャッシュから返します
// キャッシュの障害はヒント生成を止めないよう、ログに残して無視します
type CachedOracle struct {
	next  service.HintOracle
	cache repo.HintCache
	ttl   time.Duration
}

// NewCachedOracle は新しいCachedOracleを作成します
func NewCachedOracle(next service.HintOracle, cache repo.HintCache, ttl time.Duration) *CachedOracle {
	return &CachedOracle{next: next, cache: cache, ttl: ttl}
}

func (c *CachedOracle) Hint(ctx context.Context, name string) (string, error) {
	if hint, ok, err := c.cache.GetHint(ctx, name); err != nil {
		log.Warn().Err(err).Msg("hint cache lookup failed")
	} else if ok {
		log.Debug().Msg("hint cache hit")
		return hint, nil
	}

	hint, err := c.next.Hint(ctx, name)
	if err != nil {
		return "", err
	}
	if err := c.cache.SetHint(ctx, name, hint, c.ttl); err != nil {
		log.Warn().Err(err).Msg("failed to store hint in cache")
	}
	return hint, nil
}
