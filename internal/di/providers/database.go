package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/inkwell-blog/inkwell-server/internal/config"
	"github.com/inkwell-blog/inkwell-server/internal/logger"
	"github.com/inkwell-blog/inkwell-server/internal/store"
	"github.com/inkwell-blog/inkwell-server/internal/store/kv"
	"github.com/inkwell-blog/inkwell-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the store selected by the configured driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		st     store.Store
		dbPath string
		err    error
	)
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		dbPath = filepath.Join(cfg.Data.Path, "inkwell.db")
		st, err = sqlite.Open(dbPath, log.Logger)
	case config.DriverBadger:
		dbPath = filepath.Join(cfg.Data.Path, "db")
		st, err = kv.New(dbPath, log.Logger)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Store.Driver, "path", dbPath)

	return &StoreHandle{Store: st}, nil
}
