package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/okian/slopguard/internal/adapters/http/api"
	"github.com/okian/slopguard/internal/adapters/repository"
	app "github.com/okian/slopguard/internal/app"
	"github.com/okian/slopguard/internal/config"
	"github.com/okian/slopguard/internal/domain/types"
	"github.com/okian/slopguard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("SLOPGUARD_ADDR", ":8080")
			_ = os.Setenv("SLOPGUARD_PERSIST_QUEUE_SIZE", "8")
			defer func() {
				_ = os.Unsetenv("SLOPGUARD_ADDR")
				_ = os.Unsetenv("SLOPGUARD_PERSIST_QUEUE_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PersistQueueSize, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When no data directory is configured", func() {
			store, err := openStore(config.New())

			convey.Convey("Then an in-memory store is used", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When a data directory is configured", func() {
			cfg := config.New()
			cfg.DataDir = t.TempDir()
			ctx := context.Background()

			store, err := openStore(cfg)
			convey.So(err, convey.ShouldBeNil)

			svc := app.New(app.WithRepository(repository.NewLedgerRepository(store, cfg.StorageKey)))
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			svc.ResetPersonalization(ctx)
			svc.Stop()
			convey.So(store.Close(), convey.ShouldBeNil)

			convey.Convey("Then the ledger survives reopening the directory", func() {
				reopened, err := openStore(cfg)
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = reopened.Close() }()

				st, err := repository.NewLedgerRepository(reopened, cfg.StorageKey).Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(st.GlobalBias, convey.ShouldEqual, 0.0)
			})
		})

		convey.Convey("When wiring the HTTP handler", func() {
			svc := app.New()
			h := api.NewServer(svc, svc).Routes()
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			convey.Convey("Then health should respond", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(svc.ApplyPersonalization(types.ScanResult{ContentID: "x", CreatorID: "c", ScannedAt: "t"}, nil).RawModelScore, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When refreshing system metrics", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
