package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/Godhunder/discord-downloader1/internal/application/cleanup"
	"github.com/Godhunder/discord-downloader1/internal/application/download"
	"github.com/Godhunder/discord-downloader1/internal/application/formats"
	"github.com/Godhunder/discord-downloader1/internal/application/session"
	"github.com/Godhunder/discord-downloader1/internal/config"
	"github.com/Godhunder/discord-downloader1/internal/infrastructure/filesystem"
	"github.com/Godhunder/discord-downloader1/internal/infrastructure/keepalive"
	"github.com/Godhunder/discord-downloader1/internal/infrastructure/ytdlp"
	httptransport "github.com/Godhunder/discord-downloader1/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := log.Default()

	store := filesystem.NewStore(cfg.DownloadsDir)
	if err := store.EnsureDir(); err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	runner := ytdlp.NewRunner(cfg.YtDlpPath)
	sessions := session.NewStore()
	prober := formats.NewService(runner, cfg.MaxFormatChoices)
	feed := httptransport.NewFeed()

	expiry := time.Duration(cfg.FileExpiryHours) * time.Hour
	jobTimeout := time.Duration(cfg.JobTimeoutSeconds) * time.Second
	queue := download.NewService(runner, store, feed, sessions, logger, cfg.BaseURL, expiry, jobTimeout)

	sweeper := cleanup.NewService(store, logger, expiry, time.Duration(cfg.SweepIntervalMins)*time.Minute)
	pinger := keepalive.NewPinger(cfg.BaseURL+"/healthz", time.Duration(cfg.SelfPingMins)*time.Minute, logger)

	handler := httptransport.NewHandler(sessions, prober, queue, feed, logger)
	router := httptransport.NewRouter(handler, cfg.DownloadsDir)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	})

	server := &http.Server{Addr: cfg.ServerAddr, Handler: c.Handler(router)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("server started on %s", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		sweeper.Run(ctx)
		return nil
	})
	g.Go(func() error {
		pinger.Run(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
	logger.Println("server stopped")
}
