package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"optioneer/config"
	"optioneer/engine"
	"optioneer/fyers"
	"optioneer/journal"
	"optioneer/store"
	"optioneer/web"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the forward-test engine",
	Long: `Run loads the configuration, restores any persisted positions,
and starts the periodic scan loop. The engine keeps running until
interrupted; state is snapshotted after every mutation, so a restart
resumes exactly where it left off.`,
	RunE: runEngine,
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "configuration file (required)")
	runCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	appID := os.Getenv("FYERS_CLIENT_ID")
	accessToken := os.Getenv("FYERS_ACCESS_TOKEN")
	if appID == "" || accessToken == "" {
		return errors.New("FYERS_CLIENT_ID and FYERS_ACCESS_TOKEN must be set (see 'optioneer token')")
	}

	gw := fyers.NewClient(appID, accessToken, logger)
	st := store.New(cfg.Store.Path, cfg.Account.StartingCapital, logger)

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	eng := engine.New(cfg, gw, st, j, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Web.Addr != "" {
		srv := &http.Server{
			Addr:    cfg.Web.Addr,
			Handler: web.NewServer(eng, st, logger).Handler(),
		}
		go func() {
			logger.Info("health endpoint listening", zap.String("addr", cfg.Web.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server", zap.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutCtx)
		}()
	}

	if cfg.Scan.Stream {
		// TODO: resubscribe when a position opens after startup; for now
		// the tick stream covers the underlying and positions restored
		// from the snapshot, and the timer loop picks up the rest.
		symbols := append(eng.OpenInstruments(), cfg.Market.Underlying)
		ticker := fyers.NewTicker(appID, accessToken, symbols, eng.OnTick, logger)
		go ticker.Run(ctx)
	}

	interval, err := cfg.Scan.ParseInterval()
	if err != nil {
		return err
	}

	logger.Info("engine starting",
		zap.String("underlying", cfg.Market.Underlying),
		zap.Duration("interval", interval))

	eng.Run(ctx, interval)
	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	default:
		return journal.NewCSV(jc.TradesFile, jc.EquityFile)
	}
}
