package sys

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// CreateShutdownChannel returns a channel that receives the first interrupt
// or termination signal sent to the process.
func CreateShutdownChannel() chan os.Signal {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	return done
}

// ShutdownContext returns a context that is cancelled when the process is
// asked to stop. The returned stop function releases the signal handler.
func ShutdownContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	done := CreateShutdownChannel()
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(done)
		cancel()
	}
}
