package alert

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/plugin"
	"github.com/jedawel/lenssafe/internal/rubbing"
)

// Plugins runs every discovered plugin that handles the alert action.
type Plugins struct {
	manager  *plugin.Manager
	executor *plugin.Executor
	logger   *zap.Logger
}

// NewPlugins creates a Plugins dispatcher. A nil logger discards output.
func NewPlugins(manager *plugin.Manager, executor *plugin.Executor, logger *zap.Logger) *Plugins {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plugins{manager: manager, executor: executor, logger: logger.Named("plugins")}
}

// Dispatch runs each alert plugin in name order. A plugin that fails or
// reports failure does not stop the others.
func (p *Plugins) Dispatch(ctx context.Context, ev rubbing.AlertEvent) error {
	req := plugin.Request{
		Action: plugin.ActionAlert,
		Event: plugin.Event{
			ID:                ev.ID,
			Time:              ev.Time,
			ConsecutiveFrames: ev.ConsecutiveFrames,
			Eye:               string(ev.Eye),
			Hand:              ev.Hand,
		},
	}

	var errs []error
	for _, pl := range p.manager.ForAction(plugin.ActionAlert) {
		r := req
		resp, err := p.executor.Execute(ctx, pl, &r)
		if err == nil && !resp.Success {
			err = errors.New(resp.Error)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("plugin %s: %w", pl.Manifest.Name, err))
			continue
		}
		p.logger.Debug("plugin notified", zap.String("plugin", pl.Manifest.Name), zap.String("alert_id", ev.ID))
	}
	return errors.Join(errs...)
}
