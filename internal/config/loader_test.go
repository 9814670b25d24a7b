package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/slopguard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"SLOPGUARD_CONFIG",
	"SLOPGUARD_ADDR",
	"SLOPGUARD_LOG_LEVEL",
	"SLOPGUARD_LOG_FORMAT",
	"SLOPGUARD_DATA_DIR",
	"SLOPGUARD_STORAGE_KEY",
	"SLOPGUARD_CONSERVATIVE_MODE",
	"SLOPGUARD_PERSIST_QUEUE_SIZE",
	"SLOPGUARD_PERSIST_TIMEOUT_MS",
	"SLOPGUARD_SHUTDOWN_TIMEOUT_MS",
	"SLOPGUARD_CORS_ORIGINS",
	"SLOPGUARD_WRITE_RATE_LIMIT",
	"SLOPGUARD_WRITE_RATE_WINDOW_MS",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slopguard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StorageKey, convey.ShouldEqual, "ai-content-guardian-personalization")
				convey.So(cfg.PersistQueueSize, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SLOPGUARD_ADDR", ":8080")
			_ = os.Setenv("SLOPGUARD_DATA_DIR", "/var/lib/slopguard")
			_ = os.Setenv("SLOPGUARD_CONSERVATIVE_MODE", "true")
			_ = os.Setenv("SLOPGUARD_PERSIST_QUEUE_SIZE", "16")
			_ = os.Setenv("SLOPGUARD_LOG_FORMAT", "json")
			_ = os.Setenv("SLOPGUARD_CORS_ORIGINS", "chrome-extension://abc")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/var/lib/slopguard")
				convey.So(cfg.ConservativeMode, convey.ShouldBeTrue)
				convey.So(cfg.PersistQueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"chrome-extension://abc"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeConfigFile(t, `
addr: ":9090"
storage_key: "custom-ledger"
persist_timeout_ms: 500
log_level: debug
`)
			_ = os.Setenv("SLOPGUARD_CONFIG", path)
			_ = os.Setenv("SLOPGUARD_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StorageKey, convey.ShouldEqual, "custom-ledger")
				convey.So(cfg.PersistTimeoutMS, convey.ShouldEqual, 500)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.PersistQueueSize, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("SLOPGUARD_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("SLOPGUARD_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SLOPGUARD_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SLOPGUARD_PERSIST_QUEUE_SIZE", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
