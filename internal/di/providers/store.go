package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/linknlink/linknlink-server/internal/auth"
	"github.com/linknlink/linknlink-server/internal/config"
	"github.com/linknlink/linknlink-server/internal/logger"
	"github.com/linknlink/linknlink-server/internal/pocketbase"
	"github.com/linknlink/linknlink-server/internal/store"
	"github.com/linknlink/linknlink-server/internal/store/sqlite"
)

// StoreHandle wraps the record backend with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the record backend selected by the configuration.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i).WithField("backend", cfg.Backend.Driver)

	switch cfg.Backend.Driver {
	case config.BackendPocketBase:
		client := pocketbase.New(cfg.Backend.PocketBaseURL, cfg.Backend.Timeout, log.Logger)
		log.Info("Using PocketBase backend", "url", cfg.Backend.PocketBaseURL)
		return &StoreHandle{Store: client}, nil

	case config.BackendSQLite:
		tokens := do.MustInvoke[*auth.TokenService](i)
		db, err := sqlite.Open(cfg.SQLitePath(), tokens, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "path", cfg.SQLitePath())
		return &StoreHandle{Store: db}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend.Driver)
	}
}
