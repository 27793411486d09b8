package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenTraceLab/hierpcb/internal/watcher"
)

// watch runs the jobs once and again after every save of the template,
// until interrupted.
func (r *runner) watch(ctx context.Context) error {
	w, err := watcher.New(watcher.Config{
		Paths:    []string{r.cfg.Template},
		Debounce: r.cfg.Debounce,
	})
	if err != nil {
		return fmt.Errorf("error starting watcher: %w", err)
	}
	defer w.Stop()

	changes, err := w.Start()
	if err != nil {
		return fmt.Errorf("error starting watcher: %w", err)
	}

	template := boardKey(r.cfg.Template)
	r.beforeWrite = func(path string) {
		if boardKey(path) == template {
			w.Mute(2*r.cfg.Debounce + time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.run(); err != nil {
		r.logger.Error("Replication failed", "err", err)
	}
	r.logger.Info("Watching template", "path", r.cfg.Template)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopped watching")
			return nil
		case <-changes:
			r.logger.Info("Template changed", "path", r.cfg.Template)
			if err := r.run(); err != nil {
				r.logger.Error("Replication failed", "err", err)
			}
		case err := <-w.Errors():
			r.logger.Warn("Watch error", "err", err)
		}
	}
}
