//go:build integration

package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/database"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/pagination"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/relayid"
)

// newPostgresServices starts a throwaway Postgres, migrates it and returns
// services over it.
func newPostgresServices(t *testing.T) *Services {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("metering_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateUp(db))

	return New(db, zerolog.Nop())
}

func date(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

func TestPostgresLifecycle(t *testing.T) {
	svcs := newPostgresServices(t)
	ctx := context.Background()
	caller := admin()

	t.Run("round trip and update", func(t *testing.T) {
		c, err := svcs.Customers.Create(ctx, caller, CustomerInput{FirstName: "Dave", LastName: "Backster"})
		require.NoError(t, err)
		id := relayid.Encode(domain.KindCustomer, c.ID)

		got, err := svcs.Customers.Get(ctx, caller, id)
		require.NoError(t, err)
		assert.Equal(t, "Dave", got.FirstName)

		in := CustomerInput{FirstName: "David", LastName: "Backster"}
		first, err := svcs.Customers.Update(ctx, caller, id, in)
		require.NoError(t, err)
		second, err := svcs.Customers.Update(ctx, caller, id, in)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		deleted, err := svcs.Customers.Delete(ctx, caller, id)
		require.NoError(t, err)
		assert.Equal(t, c.ID, deleted.ID)

		_, err = svcs.Customers.Get(ctx, caller, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("meter type delete cascades", func(t *testing.T) {
		mt, err := svcs.MeterTypes.Create(ctx, caller, MeterTypeInput{MeterModel: "WET1000", MeterVendor: "Ztron"})
		require.NoError(t, err)
		typeID := relayid.Encode(domain.KindMeterType, mt.ID)

		m, err := svcs.Meters.Create(ctx, caller, MeterInput{MeterType: typeID, MeterSerial: "SN-1", InstallDate: date(2024, 1, 2)})
		require.NoError(t, err)
		assert.Equal(t, mt.ID, m.MeterTypeID)

		_, err = svcs.Meters.Create(ctx, caller, MeterInput{MeterType: typeID, MeterSerial: "SN-1", InstallDate: date(2024, 1, 3)})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = svcs.MeterTypes.Delete(ctx, caller, typeID)
		require.NoError(t, err)

		page, err := svcs.Meters.Read(ctx, caller, url.Values{"meter_serial": {"SN-1"}}, pagination.PageSpec{})
		require.NoError(t, err)
		assert.Empty(t, page.Edges)
	})

	t.Run("customer filters", func(t *testing.T) {
		for _, n := range [][2]string{{"Joe", "Smith"}, {"Joe", "Lee"}, {"Amy", "Joe"}} {
			_, err := svcs.Customers.Create(ctx, caller, CustomerInput{FirstName: n[0], LastName: n[1]})
			require.NoError(t, err)
		}

		page, err := svcs.Customers.Read(ctx, caller, url.Values{"first_name": {"Joe"}}, pagination.PageSpec{})
		require.NoError(t, err)
		require.Len(t, page.Edges, 2)
		assert.Equal(t, "Smith", page.Edges[0].Node.LastName)
		assert.Equal(t, "Lee", page.Edges[1].Node.LastName)

		page, err = svcs.Customers.Read(ctx, caller, url.Values{"last_name__icontains": {"oe"}}, pagination.PageSpec{})
		require.NoError(t, err)
		require.Len(t, page.Edges, 1)
		assert.Equal(t, "Amy", page.Edges[0].Node.FirstName)

		page, err = svcs.Customers.Read(ctx, caller, url.Values{}, pagination.PageSpec{First: 2})
		require.NoError(t, err)
		require.Len(t, page.Edges, 2)
		assert.True(t, page.PageInfo.HasNextPage)

		rest, err := svcs.Customers.Read(ctx, caller, url.Values{}, pagination.PageSpec{First: 2, After: page.PageInfo.EndCursor})
		require.NoError(t, err)
		require.Len(t, rest.Edges, 1)
		assert.False(t, rest.PageInfo.HasNextPage)
	})

	t.Run("denied caller changes nothing", func(t *testing.T) {
		before, err := svcs.Customers.Read(ctx, caller, url.Values{}, pagination.PageSpec{})
		require.NoError(t, err)

		clerk := auth.NewIdentity(2, "clerk", []string{"api.view_customer"})
		_, err = svcs.Customers.Create(ctx, clerk, CustomerInput{FirstName: "No", LastName: "Body"})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)

		after, err := svcs.Customers.Read(ctx, caller, url.Values{}, pagination.PageSpec{})
		require.NoError(t, err)
		assert.Equal(t, len(before.Edges), len(after.Edges))
	})

	t.Run("consumption and rate", func(t *testing.T) {
		mt, err := svcs.MeterTypes.Create(ctx, caller, MeterTypeInput{MeterModel: "G4", MeterVendor: "Acme"})
		require.NoError(t, err)
		m, err := svcs.Meters.Create(ctx, caller, MeterInput{
			MeterType:   relayid.Encode(domain.KindMeterType, mt.ID),
			MeterSerial: "SN-2",
			InstallDate: date(2023, 6, 1),
		})
		require.NoError(t, err)

		reading := int64(1200)
		c, err := svcs.Consumptions.Create(ctx, caller, ConsumptionInput{
			Meter:         relayid.Encode(domain.KindMeter, m.ID),
			ReadTime:      date(2024, 3, 1),
			Reading:       &reading,
			UnitOfMeasure: "gallon",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Gallon, c.UnitOfMeasure)

		page, err := svcs.Consumptions.Read(ctx, caller, url.Values{"read_time__year": {"2024"}, "read_time__month": {"3"}}, pagination.PageSpec{})
		require.NoError(t, err)
		assert.Len(t, page.Edges, 1)

		rate := decimal.RequireFromString("0.1234")
		start := NewDate(2024, time.January, 1)
		r, err := svcs.Rates.Create(ctx, caller, RateInput{Rate: &rate, EffectiveStart: &start, UnitOfMeasure: "L"})
		require.NoError(t, err)
		assert.True(t, r.Rate.Equal(rate))
		assert.Nil(t, r.EffectiveEnd)
	})
}
