// Package ingest applies meter readings published over MQTT as Consumption
// records.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/metrics"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/relayid"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/service"
)

// Reading is the wire payload. Meter is the opaque Meter id.
type Reading struct {
	Meter         string    `json:"meter"`
	ReadTime      time.Time `json:"read_time"`
	Reading       *int64    `json:"reading"`
	UnitOfMeasure string    `json:"unit_of_measure"`
}

// ConsumptionCreator is satisfied by the Consumptions resource.
type ConsumptionCreator interface {
	Create(ctx context.Context, caller *auth.Identity, in service.ConsumptionInput) (*domain.Consumption, error)
}

type Ingestor struct {
	consumptions ConsumptionCreator
	caller       *auth.Identity
	log          zerolog.Logger
}

// New returns an Ingestor that writes as caller. The caller still goes
// through the permission gate, so it needs api.add_consumption.
func New(consumptions ConsumptionCreator, caller *auth.Identity, log zerolog.Logger) *Ingestor {
	return &Ingestor{consumptions: consumptions, caller: caller, log: log.With().Str("component", "ingest").Logger()}
}

// Handle decodes one payload and creates the Consumption. Failed readings
// are dropped.
func (i *Ingestor) Handle(ctx context.Context, payload []byte) (c *domain.Consumption, err error) {
	defer func() {
		code := "OK"
		if err != nil {
			code = domain.Code(err)
		}
		metrics.IngestedReadings.WithLabelValues(code).Inc()
	}()

	var r Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("%w: reading payload: %v", domain.ErrValidation, err)
	}

	in := service.ConsumptionInput{
		Meter:         r.Meter,
		Reading:       r.Reading,
		UnitOfMeasure: r.UnitOfMeasure,
	}
	if !r.ReadTime.IsZero() {
		in.ReadTime = &r.ReadTime
	}
	return i.consumptions.Create(ctx, i.caller, in)
}

// MessageHandler adapts Handle to a paho subscription callback.
func (i *Ingestor) MessageHandler(ctx context.Context) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		c, err := i.Handle(ctx, msg.Payload())
		if err != nil {
			i.log.Error().Err(err).Str("topic", msg.Topic()).Str("code", domain.Code(err)).Msg("reading rejected")
			return
		}
		i.log.Debug().
			Str("id", relayid.Encode(domain.KindConsumption, c.ID)).
			Int64("reading", c.Reading).
			Msg("reading stored")
	}
}
