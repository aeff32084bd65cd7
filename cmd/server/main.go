package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-xero-service/accounting"
	"github.com/jrsteele09/go-xero-service/authflow"
	"github.com/jrsteele09/go-xero-service/internal/config"
	"github.com/jrsteele09/go-xero-service/server"
	"github.com/jrsteele09/go-xero-service/server/flowstate"
	"github.com/jrsteele09/go-xero-service/tokens"
	"github.com/jrsteele09/go-xero-service/tokenstore"
	"github.com/jrsteele09/go-xero-service/xero"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	logger := newLogger(c)

	if missing := config.Validate(c); len(missing) > 0 {
		logger.Warn().Strs("missing", missing).Msg("configuration incomplete, authorization flows will fail")
	}

	srv, err := buildServer(c, logger)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config, logger zerolog.Logger) (*server.Server, error) {
	store, err := tokenstore.NewFileStore(
		filepath.Join(c.GetDataFolder(), "tokens.json"),
		tokenstore.WithDefaultExpiry(c.GetDefaultTokenExpiry()),
		tokenstore.WithSnapshotKey(c.GetStorageSecret()),
		tokenstore.WithFileStoreLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token store: %w", err)
	}

	discoveryCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	endpoint := xero.DiscoverEndpoint(discoveryCtx, c.GetXeroIssuer(), logger)

	xeroClient := xero.New(c, endpoint, xero.WithLogger(logger))

	manager, err := tokens.NewManager(store, xeroClient, tokens.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating token manager: %w", err)
	}

	flow, err := authflow.NewController(xeroClient, store, authflow.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating auth flow controller: %w", err)
	}

	accountingClient := accounting.New(c.GetXeroAccountingURL(), manager, accounting.WithLogger(logger))

	return server.New(c, server.Deps{
		Store:      store,
		Manager:    manager,
		Flow:       flow,
		Accounting: accountingClient,
	}, flowstate.NewInMemoryRepo(), logger)
}

func newLogger(c config.Config) zerolog.Logger {
	if c.GetEnv() == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).
		Level(zerolog.InfoLevel).
		With().Timestamp().Str("service", "go-xero-service").Logger()
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
