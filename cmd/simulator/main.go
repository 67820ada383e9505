package main

import (
	"encoding/json"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/config"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/ingest"
)

func main() {
	meter := flag.String("meter", "", "opaque Meter id the readings belong to")
	count := flag.Int("count", 100, "number of readings to publish")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between readings")
	unit := flag.String("unit", "L", "unit of measure (L or G)")
	flag.Parse()

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *meter == "" {
		log.Fatal().Msg("--meter is required")
	}

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	// Cumulative register, so each reading is at least the previous one.
	var register int64
	for i := 0; i < *count; i++ {
		register += rand.Int63n(50)
		reading := register
		r := ingest.Reading{
			Meter:         *meter,
			ReadTime:      time.Now().UTC(),
			Reading:       &reading,
			UnitOfMeasure: *unit,
		}
		payload, _ := json.Marshal(r)
		token := client.Publish(config.MQTTTopic(), 1, false, payload)
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Msg("publish failed")
		}
		time.Sleep(*interval)
	}
	log.Info().Int("count", *count).Msg("simulation done")
}
