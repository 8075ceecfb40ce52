package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	carhttp "github.com/AbhigyanVE/carspect/http"
)

// Run executes the serve command. It blocks until the process receives an
// interrupt or termination signal, then drains in-flight requests.
func (c *ServeCmd) Run(deps *Dependencies) error {
	server := carhttp.NewServer(c.Addr, deps.Service, deps.Logger)

	ctx, stop := signal.NotifyContext(deps.Ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()

	fmt.Fprintf(deps.Stdout, "listening on %s\n", c.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}
