package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/database"
	"github.com/vancomm/minesweeper-engine/internal/logging"
)

var log = logrus.New()

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.json", "config file path")
	flag.StringVar(&configPath, "c", "config.json", "config file path (shorthand)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("unable to load config: ", err)
	}
	if err := logging.Setup(log, cfg); err != nil {
		log.Fatal(err)
	}

	migrator, err := database.Migrate(cfg.Records.Postgres.DbUrl(), database.Migrations)
	if err != nil {
		log.Fatal(err)
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		log.WithError(err).Error("failed to check migration version")
		return
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
