package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/metrics"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/service"
)

type recorder struct {
	calls  []service.ConsumptionInput
	caller *auth.Identity
	err    error
}

func (r *recorder) Create(_ context.Context, caller *auth.Identity, in service.ConsumptionInput) (*domain.Consumption, error) {
	r.calls = append(r.calls, in)
	r.caller = caller
	if r.err != nil {
		return nil, r.err
	}
	return &domain.Consumption{ID: 9, ReadTime: *in.ReadTime, Reading: *in.Reading}, nil
}

type message struct{ payload []byte }

func (message) Duplicate() bool { return false }
func (message) Qos() byte { return 0 }
func (message) Retained() bool { return false }
func (message) Topic() string { return "metering/consumption" }
func (message) MessageID() uint16 { return 1 }
func (m message) Payload() []byte { return m.payload }
func (message) Ack() {}

var ingestor = auth.NewIdentity(7, "ingestor", []string{"api.add_consumption"})

func TestHandleCreatesConsumption(t *testing.T) {
	rec := &recorder{}
	ing := New(rec, ingestor, zerolog.Nop())
	before := testutil.ToFloat64(metrics.IngestedReadings.WithLabelValues("OK"))

	c, err := ing.Handle(context.Background(), []byte(`{"meter":"TWV0ZXI6MQ==","read_time":"2024-03-01T10:00:00Z","reading":1200,"unit_of_measure":"G"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.ID)

	require.Len(t, rec.calls, 1)
	in := rec.calls[0]
	assert.Equal(t, "TWV0ZXI6MQ==", in.Meter)
	assert.Equal(t, int64(1200), *in.Reading)
	assert.Equal(t, "G", in.UnitOfMeasure)
	assert.True(t, in.ReadTime.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Same(t, ingestor, rec.caller)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.IngestedReadings.WithLabelValues("OK")))
}

func TestHandleRejectsBadPayload(t *testing.T) {
	rec := &recorder{}
	ing := New(rec, ingestor, zerolog.Nop())
	before := testutil.ToFloat64(metrics.IngestedReadings.WithLabelValues("VALIDATION_ERROR"))

	_, err := ing.Handle(context.Background(), []byte(`{"reading":"lots"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, rec.calls)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.IngestedReadings.WithLabelValues("VALIDATION_ERROR")))
}

func TestHandleLeavesMissingReadTimeToValidation(t *testing.T) {
	rec := &recorder{err: domain.ErrValidation}
	ing := New(rec, ingestor, zerolog.Nop())

	_, err := ing.Handle(context.Background(), []byte(`{"meter":"TWV0ZXI6MQ==","reading":1,"unit_of_measure":"L"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
	require.Len(t, rec.calls, 1)
	assert.Nil(t, rec.calls[0].ReadTime)
}

func TestHandleLeavesMissingReadingToValidation(t *testing.T) {
	rec := &recorder{err: domain.ErrValidation}
	ing := New(rec, ingestor, zerolog.Nop())

	_, err := ing.Handle(context.Background(), []byte(`{"meter":"TWV0ZXI6MQ==","read_time":"2024-03-01T10:00:00Z","unit_of_measure":"L"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
	require.Len(t, rec.calls, 1)
	assert.Nil(t, rec.calls[0].Reading)
}

func TestMessageHandlerSwallowsFailures(t *testing.T) {
	rec := &recorder{err: domain.ErrInvalidReference}
	ing := New(rec, ingestor, zerolog.Nop())
	before := testutil.ToFloat64(metrics.IngestedReadings.WithLabelValues("INVALID_REFERENCE"))

	handler := ing.MessageHandler(context.Background())
	assert.NotPanics(t, func() {
		handler(nil, message{payload: []byte(`{"meter":"TWV0ZXI6OTk=","read_time":"2024-03-01T10:00:00Z","reading":5,"unit_of_measure":"L"}`)})
	})
	assert.Len(t, rec.calls, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.IngestedReadings.WithLabelValues("INVALID_REFERENCE")))
}
