package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/config"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/database"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/ingest"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	svcs := service.New(db, log.Logger)

	// Readings are written as a regular user so the permission gate applies.
	idp := auth.NewProvider(svcs.Repos,
		auth.NewTokenService(config.JWTSecret(), config.AccessTTL(), config.RefreshTTL()),
		auth.NewMemoryRevocationStore(), auth.NewBcryptHasher(0), log.Logger)
	caller, err := idp.ResolveUsername(ctx, config.IngestUsername())
	if err != nil {
		log.Fatal().Err(err).Str("username", config.IngestUsername()).Msg("ingest user")
	}

	ing := ingest.New(svcs.Consumptions, caller, log.Logger)

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID("metering-ingestor")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	topic := config.MQTTTopic()
	if token := client.Subscribe(topic, 1, ing.MessageHandler(ctx)); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	log.Info().Str("topic", topic).Msg("ingestor running; Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("ingestor stopping")
}
