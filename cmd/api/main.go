package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/config"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/database"
	httpapi "github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/http"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if lvl, err := zerolog.ParseLevel(config.LogLevel()); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if config.MigrateOnStart() {
		if err := database.MigrateUp(db); err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
	}

	revoked, closeRevoked, err := auth.OpenRevocationStore(context.Background(), config.RedisAddr())
	if err != nil {
		log.Fatal().Err(err).Msg("revocation store failed")
	}
	defer closeRevoked()

	svcs := service.New(db, log.Logger)
	idp := auth.NewProvider(svcs.Repos,
		auth.NewTokenService(config.JWTSecret(), config.AccessTTL(), config.RefreshTTL()),
		revoked, auth.NewBcryptHasher(0), log.Logger)

	app := httpapi.NewApp(svcs, idp, log.Logger)

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	log.Fatal().Err(app.Listen(addr)).Msg("server exit")
}
