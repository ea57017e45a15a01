package main

import (
	"context"
	"encoding/json"

	"github.com/agentuity/hoopstats/refresh"
	"github.com/agentuity/hoopstats/sys"
)

// watchScoreboard prints the scoreboard whenever it changes until the
// context ends or the process is interrupted.
func (a *app) watchScoreboard(ctx context.Context) error {
	ctx, stop := sys.ShutdownContext(ctx)
	defer stop()

	var printErr error
	poller := refresh.New(a.cfg.PollInterval.Std(),
		refresh.FromSentinel(func(ctx context.Context) json.RawMessage {
			return a.client.Scoreboard(ctx)
		}),
		refresh.WithLogger(a.logger),
		refresh.OnChange(func(v json.RawMessage) {
			if err := a.print(v); err != nil && printErr == nil {
				printErr = err
			}
		}),
	)
	a.logger.Info("watching the scoreboard every %s, press ctrl+c to stop", a.cfg.PollInterval.Std())
	poller.Run(ctx)
	return printErr
}
