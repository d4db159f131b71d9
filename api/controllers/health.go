package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tortasnery/storefront/api/responses"
	"github.com/tortasnery/storefront/pkg/config"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is any dependency the readiness probe can check.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tortas-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency concurrently. Nil entries are
// skipped so optional backends can be left out.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tortas-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var (
			mu      sync.Mutex
			results = make(map[string]string, len(deps))
			errs    = make(map[string]error)
		)
		var g errgroup.Group
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			g.Go(func() error {
				err := dep.Ping(ctx)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					results[name] = "down"
					errs[name] = err
					return nil
				}
				results[name] = "up"
				return nil
			})
		}
		_ = g.Wait()

		if len(errs) > 0 {
			if logg != nil {
				for name, err := range errs {
					logg.Error(logg.WithField(r.Context(), "dependency", name), "readiness.check_failed", err)
				}
			}
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "not ready"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": results})
	}
}
