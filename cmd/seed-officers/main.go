// Provisions officer accounts from a JSON file:
//
//	[{"email": "sdm@example.gov.in", "role": "sdm", "password": "...", "display_name": "..."}]
//
// Passwords may be given in plain text or as an existing bcrypt hash.
// Accounts whose email already exists are skipped.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"relief-claims-api/apperrors"
	"relief-claims-api/config"
	"relief-claims-api/models"
	"relief-claims-api/repository"
	"relief-claims-api/services"
)

type seedOfficer struct {
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	Password    string      `json:"password"`
	DisplayName string      `json:"display_name"`
	Phone       string      `json:"phone"`
	Department  string      `json:"department"`
	Designation string      `json:"designation"`
}

func main() {
	file := flag.String("file", "officers.json", "JSON file with the officers to create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log, logFile := config.InitLogging(cfg.Log, cfg.Environment)
	if logFile != nil {
		defer logFile.Close()
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.WithError(err).Fatal("Failed to read officers file")
	}
	var seeds []seedOfficer
	if err := json.Unmarshal(raw, &seeds); err != nil {
		log.WithError(err).Fatal("Failed to parse officers file")
	}

	db, err := config.OpenDB(cfg.Database, cfg.Environment)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	officers := services.NewOfficerService(repository.NewGormStore(db).Officers(), cfg.JWT.Secret, time.Hour)

	ctx := context.Background()
	created := 0
	for _, seed := range seeds {
		entry := log.WithFields(logrus.Fields{"email": seed.Email, "role": seed.Role})
		_, err := officers.Register(ctx, models.Officer{
			Email:       seed.Email,
			Role:        seed.Role,
			DisplayName: seed.DisplayName,
			Phone:       seed.Phone,
			Department:  seed.Department,
			Designation: seed.Designation,
		}, seed.Password)
		switch {
		case err == nil:
			created++
			entry.Info("Officer created")
		case apperrors.KindOf(err) == apperrors.KindConflict:
			entry.Info("Officer already exists, skipping")
		default:
			entry.WithError(err).Error("Failed to create officer")
		}
	}

	log.WithFields(logrus.Fields{"created": created, "total": len(seeds)}).Info("Officer seeding completed")
}
