package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"wolfden/internal/archive"
	"wolfden/internal/engine"
	"wolfden/internal/logger"
	"wolfden/internal/script"
)

func main() {
	flags := registerFlags()
	flag.Parse()
	cfg := loadConfig(*flags.configPath)
	flags.applyTo(&cfg)

	zlog, err := logger.New(cfg.Dev)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	eng := engine.New(engine.WithLogger(zlog))

	var store *archive.Store
	if cfg.ArchiveDB != "" {
		store, err = archive.Open(cfg.ArchiveDB)
		if err != nil {
			zlog.Fatalw("failed to open results archive", "path", cfg.ArchiveDB, "err", err)
		}
		defer store.Close()
	}

	story := initStoryteller(cfg, zlog)

	hub := newHub(zlog)
	go hub.run()
	defer hub.stop()

	srv := newServer(cfg, eng, hub, store, story, zlog)

	if cfg.Demo {
		driver := script.New(eng,
			script.WithLogger(zlog),
			script.WithDelay(time.Duration(cfg.DemoDelayMS)*time.Millisecond),
			script.WithStepHook(srv.broadcastState),
		)
		go func() {
			if err := driver.Run(context.Background(), script.DemoRoster(), script.DemoSteps()); err != nil {
				zlog.Errorw("scripted game failed", "err", err)
				return
			}
			srv.maybeFinishGame()
		}()
	}

	zlog.Infow("server starting", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.routes()); err != nil {
		zlog.Fatalw("server stopped", "err", err)
	}
}
