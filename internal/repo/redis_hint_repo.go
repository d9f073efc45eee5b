package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHintRepo はAIヒントをRedisにキャッシュします
type RedisHintRepo struct{ rdb *redis.Client }

func NewRedisHintRepo(rdb *redis.Client) *RedisHintRepo {
	return &RedisHintRepo{rdb: rdb}
}

func hintKey(name string) string {
	return fmt.Sprintf("hints:%s", strings.ToLower(strings.TrimSpace(name)))
}

func hintStatsKey() string {
	return "hints:stats"
}

func (hr *RedisHintRepo) GetHint(ctx context.Context, name string) (string, bool, error) {
	val, err := hr.rdb.Get(ctx, hintKey(name)).Result()
	if errors.Is(err, redis.Nil) { // キャッシュなし
		hr.rdb.HIncrBy(ctx, hintStatsKey(), "miss", 1)
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	hr.rdb.HIncrBy(ctx, hintStatsKey(), "hit", 1)
	return val, true, nil
}

func (hr *RedisHintRepo) SetHint(ctx context.Context, name, hint string, ttl time.Duration) error {
	pipe := hr.rdb.TxPipeline()
	pipe.Set(ctx, hintKey(name), hint, ttl)
	pipe.HIncrBy(ctx, hintStatsKey(), "stored", 1)
	_, err := pipe.Exec(ctx)
	return err
}
