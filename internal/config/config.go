// Package config はアプリケーションの設定を管理します
// コマンドラインフラグと環境変数（PARTYROOM_ 接頭辞）から設定を読み込み、デフォルト値を提供します
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix = "PARTYROOM"

	defaultBind         = "0.0.0.0"
	defaultPort         = 8080
	defaultCapacity     = 10
	defaultHintTimeout  = 8 * time.Second
	defaultHintCacheTTL = 24 * time.Hour
	defaultOpenAIModel  = "gpt-3.5-turbo"
)

// defaultAllowedOrigins はCORSとWebSocketで許可するデフォルトのオリジン一覧
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Config はアプリケーションの設定を保持します
type Config struct {
	Bind           string        // リッスンするアドレス
	Port           int           // リッスンするポート
	AllowedOrigins []string      // 許可するオリジン一覧（"*"で全許可）
	RoomCapacity   int           // ルームの最大人数
	HintTimeout    time.Duration // ヒント生成のタイムアウト
	HintCacheTTL   time.Duration // ヒントキャッシュの有効期限
	OpenAIAPIKey   string        // 空の場合はヒント生成を無効化
	OpenAIModel    string
	OpenAIBaseURL  string
	RedisAddr      string // 空の場合はヒントキャッシュを無効化
	Verbose        bool   // デバッグログを出力するか
	PrettyLog      bool   // 人間向けのログ形式で出力するか

	origins string // --allowed-origins の生の値
}

// Addr はhttp.Serverに渡すリッスンアドレスを返します
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// Validate は設定値を検証します
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.RoomCapacity < 2 {
		return fmt.Errorf("invalid room capacity (must be at least 2): %d", c.RoomCapacity)
	}
	if c.HintTimeout <= 0 {
		return errors.New("hint timeout must be positive")
	}
	if c.HintCacheTTL < 0 {
		return errors.New("hint cache ttl must not be negative")
	}
	return nil
}

// NewCommand はサーバー起動用のコマンドを作成します
// フラグが指定されていない項目は PARTYROOM_<FLAG> 環境変数から読み込みます
func NewCommand(cfg *Config, version string, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "partyroom",
		Short:         "Realtime multiplayer party-game room server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.AllowedOrigins = splitCSV(cfg.origins, defaultAllowedOrigins)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", defaultBind, "address to bind to (env: PARTYROOM_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", defaultPort, "port to listen on (env: PARTYROOM_PORT)")
	fs.StringVar(&cfg.origins, "allowed-origins", strings.Join(defaultAllowedOrigins, ","), "comma separated list of allowed origins, * for any (env: PARTYROOM_ALLOWED_ORIGINS)")
	fs.IntVar(&cfg.RoomCapacity, "room-capacity", defaultCapacity, "maximum number of players per room (env: PARTYROOM_ROOM_CAPACITY)")
	fs.DurationVar(&cfg.HintTimeout, "hint-timeout", defaultHintTimeout, "time to wait for a generated hint before falling back (env: PARTYROOM_HINT_TIMEOUT)")
	fs.DurationVar(&cfg.HintCacheTTL, "hint-cache-ttl", defaultHintCacheTTL, "how long generated hints are cached (env: PARTYROOM_HINT_CACHE_TTL)")
	fs.StringVar(&cfg.OpenAIAPIKey, "openai-api-key", "", "api key for hint generation, empty disables it (env: PARTYROOM_OPENAI_API_KEY)")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", defaultOpenAIModel, "chat model used for hints (env: PARTYROOM_OPENAI_MODEL)")
	fs.StringVar(&cfg.OpenAIBaseURL, "openai-base-url", "", "openai compatible api endpoint (env: PARTYROOM_OPENAI_BASE_URL)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "redis address for the hint cache, empty disables it (env: PARTYROOM_REDIS_ADDR)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display debug output (env: PARTYROOM_VERBOSE)")
	fs.BoolVar(&cfg.PrettyLog, "pretty-log", false, "write human readable logs instead of json (env: PARTYROOM_PRETTY_LOG)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("partyroom v{{.Version}}\n")

	return cmd
}

// splitCSV はカンマ区切りの文字列リストを分割します
// 空の場合はデフォルト値を返します
func splitCSV(v string, def []string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
