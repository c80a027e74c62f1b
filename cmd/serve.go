package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"time"

	"github.com/desertthunder/songreq/internal/formatter"
	"github.com/desertthunder/songreq/internal/monitor"
	"github.com/desertthunder/songreq/internal/recommend"
	"github.com/desertthunder/songreq/internal/repositories"
	"github.com/desertthunder/songreq/internal/server"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/shared"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP server until a termination signal arrives or the monitor
// gives up on the player.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if port := int(cmd.Int("port")); port > 0 {
		config.Server.Port = port
	}

	if inUse, err := shared.PortInUse(config.Server.Port); err != nil {
		r.logger.Debug("could not check port", "port", config.Server.Port, "error", err)
	} else if inUse {
		r.logger.Warn("port already in use, the server will likely fail to start", "port", config.Server.Port)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(ctx, shared.TerminationSignals()...)
	defer stop()

	mon := monitor.New(r.player, monitor.Options{
		Interval:            config.Monitor.PollInterval(),
		Deadline:            config.Monitor.ShutdownAfter(),
		Grace:               config.Monitor.Grace(),
		DisableAutoShutdown: !config.Monitor.AutoShutdown || cmd.Bool("no-auto-shutdown"),
		Logger:              r.logger,
	})

	serverURL := shared.NetworkURL(config.Server.PublicURL, config.Server.Port)
	localURL := fmt.Sprintf("http://localhost:%d", config.Server.Port)
	serverIP, err := shared.PrimaryIP()
	if err != nil {
		r.logger.Debug("no primary address", "error", err)
	}
	lan, err := shared.LANAddresses()
	if err != nil {
		r.logger.Debug("could not list interfaces", "error", err)
	}

	api := server.NewAPI(server.Deps{
		Player:      r.player,
		Search:      r.search,
		Users:       repositories.NewUserRepository(db),
		Recommender: recommend.New(services.SearchSongs(r.search), recommend.WithLogger(r.logger)),
		Status:      mon,
	}, server.Options{
		ServerURL:        serverURL,
		LocalURL:         localURL,
		ServerIP:         serverIP,
		Addresses:        lo.FlatMap(lan, func(i shared.Interface, _ int) []string { return i.Addrs }),
		InstructionsPath: config.Server.InstructionsPath,
		SearchLimit:      config.Search.Limit,
		EnqueueRate:      config.Server.EnqueueRate,
		EnqueueBurst:     config.Server.EnqueueBurst,
		CORSOrigins:      config.Server.CORSOrigins,
		StatusInterval:   time.Duration(config.Server.StatusIntervalSeconds) * time.Second,
		TrustForwarded:   config.Server.TrustProxy,
	}, r.logger)

	srv := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           server.NewHandler(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	mon.Start(ctx)
	defer mon.Stop()

	r.printBanner(serverURL, localURL, !cmd.Bool("no-qr"))
	r.logger.Info("server started", "addr", srv.Addr, "player", config.Player.BaseURL)

	select {
	case <-ctx.Done():
		r.logger.Info("shutting down")
	case <-mon.ShutdownRequested():
		r.logger.Warn("player unreachable, shutting down")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	r.logger.Info("server stopped")
	return nil
}

func (r *Runner) printBanner(serverURL, localURL string, withQR bool) {
	r.writePlainHeader("songreq is running")
	r.writePlain("Network: %s\n", serverURL)
	r.writePlain("Local:   %s\n", localURL)

	if !withQR {
		return
	}
	qr, err := formatter.QRCodeTerminal(serverURL)
	if err != nil {
		r.logger.Warn("failed to render QR code", "error", err)
		return
	}
	r.writePlain("\n%s\n", qr)
}

// QR prints the join QR code or writes it as a PNG.
func (r *Runner) QR(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		url = shared.NetworkURL(r.config.Server.PublicURL, r.config.Server.Port)
	}

	if path := cmd.String("png"); path != "" {
		png, err := formatter.QRCodePNG(url, int(cmd.Int("size")))
		if err != nil {
			return err
		}
		if err := writeFile(path, png); err != nil {
			return err
		}
		r.logger.Info("QR code saved", "path", path, "url", url)
		return nil
	}

	qr, err := formatter.QRCodeTerminal(url)
	if err != nil {
		return err
	}
	r.writePlain("%s\n%s\n", qr, url)
	return nil
}
