package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// execute はコマンドを実行し、run に渡された設定を返します
func execute(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var got *Config
	cmd := NewCommand(&Config{}, "test", func(_ *cobra.Command, cfg *Config) error {
		got = cfg
		return nil
	})
	// nilを渡すとos.Argsが使われるため、空でもスライスを渡す
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return got, err
}

func TestDefaults(t *testing.T) {
	cfg, err := execute(t)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %s", cfg.Addr())
	}
	if cfg.RoomCapacity != 10 || cfg.HintTimeout != 8*time.Second || cfg.HintCacheTTL != 24*time.Hour {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if strings.Join(cfg.AllowedOrigins, ",") != "http://localhost:3000,http://localhost:5173" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.OpenAIAPIKey != "" || cfg.RedisAddr != "" {
		t.Errorf("optional integrations should be disabled by default")
	}
}

func TestFlags(t *testing.T) {
	cfg, err := execute(t, "-p", "9000", "--room-capacity", "4", "--allowed-origins", " https://a.example , https://b.example ", "--hint-timeout", "2s", "-v")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if cfg.Port != 9000 || cfg.RoomCapacity != 4 || cfg.HintTimeout != 2*time.Second || !cfg.Verbose {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("PARTYROOM_PORT", "7001")
	t.Setenv("PARTYROOM_REDIS_ADDR", "localhost:6379")
	t.Setenv("PARTYROOM_OPENAI_API_KEY", "sk-test")

	cfg, err := execute(t)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if cfg.Port != 7001 || cfg.RedisAddr != "localhost:6379" || cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestFlagOverridesEnv(t *testing.T) {
	t.Setenv("PARTYROOM_PORT", "7001")

	cfg, err := execute(t, "--port", "7002")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if cfg.Port != 7002 {
		t.Errorf("port = %d, want 7002", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"port zero", []string{"--port", "0"}},
		{"port too large", []string{"--port", "70000"}},
		{"capacity", []string{"--room-capacity", "1"}},
		{"timeout", []string{"--hint-timeout", "0s"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := execute(t, tc.args...); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
