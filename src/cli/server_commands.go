package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"lsp-folding/src/config"
	"lsp-folding/src/internal/common"
	"lsp-folding/src/server"
	"lsp-folding/src/server/protocol"
)

// RunServe starts the language server on stdio, or the HTTP gateway when addr is set
func RunServe(ctx context.Context, addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr == "" {
		return runStdio(ctx, cfg)
	}
	if addr == httpFromConfig {
		addr = cfg.Server.HTTPAddr
	}
	return runHTTP(ctx, cfg, addr)
}

func runStdio(ctx context.Context, cfg *config.Config) error {
	reg := cfg.BuildOutlineRegistry()
	if len(reg.Languages()) == 0 {
		common.CLILogger.Warn("No outline programs configured; every foldingRange request will be empty")
	}

	session := server.NewLSPServer(server.LSPServerConfig{
		Name:      "stdio",
		Outlines:  reg,
		Documents: cfg.DocumentOptions(),
	})
	// Stdout carries the protocol; all logging goes to stderr.
	err := session.Serve(ctx, protocol.NewFramedStream(os.Stdin, os.Stdout, nil))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runHTTP(ctx context.Context, cfg *config.Config, addr string) error {
	gateway := server.NewHTTPGateway(server.GatewayConfig{
		Addr:           addr,
		Outlines:       cfg.BuildOutlineRegistry(),
		Documents:      cfg.DocumentOptions(),
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gateway.Start(gctx); err != nil {
			return fmt.Errorf("failed to start gateway: %w", err)
		}
		common.CLILogger.Info("HTTP JSON-RPC endpoint: http://%s/jsonrpc", gateway.Address())
		common.CLILogger.Info("LSP websocket endpoint: ws://%s/lsp", gateway.Address())
		common.CLILogger.Info("Health check endpoint: http://%s/health", gateway.Address())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		common.CLILogger.Info("Stopping gateway...")
		if err := gateway.Stop(); err != nil {
			common.CLILogger.Warn("Gateway stopped with error: %v", err)
			return err
		}
		common.CLILogger.Info("Gateway stopped successfully")
		return nil
	})

	return g.Wait()
}
