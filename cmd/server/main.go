package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/partyroom/partyroom/backend/api-server/internal/config"
	"github.com/partyroom/partyroom/backend/api-server/internal/handlers"
	httpx "github.com/partyroom/partyroom/backend/api-server/internal/http"
	"github.com/partyroom/partyroom/backend/api-server/internal/oracle"
	"github.com/partyroom/partyroom/backend/api-server/internal/repo"
	"github.com/partyroom/partyroom/backend/api-server/internal/service"
	"github.com/partyroom/partyroom/backend/api-server/internal/session"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, releaseVersion, serve).Execute())
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.PrettyLog {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newHintOracle はヒント生成の実装を組み立てます
// APIキーが無い場合はnilを返し、ゲームは常にフォールバックのヒントを使います
func newHintOracle(ctx context.Context, cfg *config.Config) (service.HintOracle, func()) {
	openai := oracle.NewOpenAIOracle(oracle.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if openai == nil {
		log.Info().Msg("no openai api key configured, hints will use the fallback")
		return nil, func() {}
	}
	if cfg.RedisAddr == "" {
		return openai, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		PoolSize:     10,              // 接続プールサイズ
		MinIdleConns: 2,               // 最小アイドル接続数
		MaxRetries:   3,               // リトライ回数
		DialTimeout:  5 * time.Second, // 接続タイムアウト
		ReadTimeout:  3 * time.Second, // 読み込みタイムアウト
		WriteTimeout: 3 * time.Second, // 書き込みタイムアウト
		PoolTimeout:  4 * time.Second, // プールからの取得タイムアウト
	})
	// Redis接続確認。失敗してもキャッシュ無しで起動する
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to redis, hint cache disabled")
		_ = rdb.Close()
		return openai, func() {}
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")

	cached := oracle.NewCachedOracle(openai, repo.NewRedisHintRepo(rdb), cfg.HintCacheTTL)
	return cached, func() { _ = rdb.Close() }
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hints, closeHints := newHintOracle(ctx, cfg)
	defer closeHints()

	rooms := repo.NewMemoryRoomRepo()
	sessions := session.NewRegistry()
	hub := handlers.NewRoomHub()

	roomSvc := service.NewRoomService(rooms, sessions, hub, service.NewRoomCodeGenerator(), cfg.RoomCapacity)
	gameSvc := service.NewGameService(rooms, sessions, hub, hints, service.DefaultWords, cfg.HintTimeout)

	h := handlers.NewRoomHandler(roomSvc)
	wsHandler := handlers.NewWebSocketHandler(roomSvc, gameSvc, sessions, hub, cfg.AllowedOrigins)
	router := httpx.NewRouter(h, wsHandler, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// サーバーを別goroutineで起動
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", releaseVersion).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// シャットダウンシグナルを待つ
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, shutting down gracefully...")
	}

	// 30秒のタイムアウトでGraceful Shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Int("rooms", rooms.Count()).Int("sessions", sessions.Count()).Msg("server stopped")
	return nil
}
