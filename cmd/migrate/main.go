// Creates or updates the relief claims tables.
package main

import (
	"github.com/sirupsen/logrus"

	"relief-claims-api/config"
	"relief-claims-api/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log, logFile := config.InitLogging(cfg.Log, cfg.Environment)
	if logFile != nil {
		defer logFile.Close()
	}

	db, err := config.OpenDB(cfg.Database, cfg.Environment)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	if err := repository.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}
	log.Info("Migration completed")
}
