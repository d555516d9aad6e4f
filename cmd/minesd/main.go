package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/logging"
	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/records"
	"github.com/vancomm/minesweeper-engine/internal/server"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

var (
	log = logrus.New()

	configPath string
)

func init() {
	const (
		defaultConfigPath = "config.json"
		usage             = "config file path"
	)
	flag.StringVar(&configPath, "config", defaultConfigPath, usage)
	flag.StringVar(&configPath, "c", defaultConfigPath, usage+" (shorthand)")
}

// devSecret signs tokens when development mode runs without a configured
// secret. Tokens do not survive a restart.
func devSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal("unable to generate jwt secret: ", err)
	}
	return hex.EncodeToString(b)
}

func main() {
	mainCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("unable to load config: ", err)
	}

	if err := logging.Setup(log, cfg); err != nil {
		log.Fatal(err)
	}
	mines.Log.SetLevel(log.GetLevel())
	mines.Log.SetFormatter(log.Formatter)

	log.Info("starting up, mode = ", cfg.Mode)
	log.WithFields(cfg.Fields()).Debug("config")

	if cfg.Jwt.Secret == "" {
		log.Warn("no jwt secret configured, using a random one")
		cfg.Jwt.Secret = devSecret()
	}
	jwt, err := config.NewJWT(cfg.Jwt)
	if err != nil {
		log.Fatal(err)
	}

	store, err := records.Open(mainCtx, cfg.Records, log)
	if err != nil {
		log.Fatal("unable to open records store: ", err)
	}
	defer store.Close()

	var managerOpts []session.ManagerOption
	if cfg.Sessions.ArchivePath != "" {
		archive, err := records.OpenSQLite(cfg.Sessions.ArchivePath)
		if err != nil {
			log.Fatal("unable to open session archive: ", err)
		}
		defer archive.Close()

		n, err := archive.ArchivedSessions(mainCtx)
		if err != nil {
			log.Fatal("unable to read session archive: ", err)
		}
		log.WithFields(logrus.Fields{
			"path":     cfg.Sessions.ArchivePath,
			"sessions": n,
		}).Info("session archive opened")
		managerOpts = append(managerOpts, session.WithArchive(archive))
	}

	sessions := session.NewManager(store, log, managerOpts...)
	srv := server.New(log, sessions, jwt, config.NewWebSocket(log))

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
		BaseContext: func(l net.Listener) context.Context {
			return mainCtx
		},
	}

	log.Infof("ready to serve @ %s", cfg.Addr)

	g, gCtx := errgroup.WithContext(mainCtx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return err
		}
		if cfg.Sessions.ArchivePath != "" {
			sessions.Flush(ctx)
		}
		return nil
	})
	g.Go(func() error {
		err := sessions.RunSweeper(gCtx,
			cfg.Sessions.SweepInterval.Duration,
			cfg.Sessions.MaxIdle.Duration,
		)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Printf("exit reason: %s\n", err)
	}
	log.Info("shut down")
}
