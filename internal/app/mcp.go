package app

import (
	"context"

	mcpserver "github.com/SageData-OOD/tap-firebird/internal/mcp"
)

// serveMCP runs the tap as an MCP server on stdin/stdout until the client
// disconnects or ctx is cancelled.
func (a *App) serveMCP(ctx context.Context) error {
	srv := mcpserver.New(a.tap, Version, a.logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("MCP server shutting down")
		return nil
	}
}
