package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/relayid"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/repository"
)

// Input is the typed payload of a create or update call for entity E.
// apply runs inside the mutation transaction: it resolves references and
// overwrites every mutable field of e.
type Input[E domain.Entity] interface {
	apply(ctx context.Context, tx repository.Querier, e *E) error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" is "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(fields, "; "))
}

// Date is a calendar date in YYYY-MM-DD form. Full RFC 3339 timestamps are
// accepted and truncated to their date.
type Date struct{ time.Time }

func NewDate(y int, m time.Month, d int) Date { return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)} }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, s)
		if tsErr != nil {
			return fmt.Errorf("date %q: want YYYY-MM-DD", s)
		}
		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.Format(time.DateOnly)) }

// reference decodes a foreign key input and checks that the row exists.
func reference(ctx context.Context, tx repository.Querier, t *repository.Table, field, opaque string) (int64, error) {
	id, err := relayid.DecodeRef(t.Kind, opaque)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	ok, err := repository.Exists(ctx, tx, t, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s %s does not exist", domain.ErrInvalidReference, field, opaque)
	}
	return id, nil
}

type CustomerInput struct {
	FirstName string `json:"first_name" validate:"required,notblank"`
	LastName  string `json:"last_name" validate:"required,notblank"`
}

func (in CustomerInput) apply(_ context.Context, _ repository.Querier, e *domain.Customer) error {
	e.FirstName = in.FirstName
	e.LastName = in.LastName
	return nil
}

type MeterTypeInput struct {
	MeterModel  string `json:"meter_model" validate:"required,notblank"`
	MeterVendor string `json:"meter_vendor" validate:"required,notblank"`
}

func (in MeterTypeInput) apply(_ context.Context, _ repository.Querier, e *domain.MeterType) error {
	e.MeterModel = in.MeterModel
	e.MeterVendor = in.MeterVendor
	return nil
}

// MeterInput references its meter type by opaque id. RetireDate is nullable;
// leaving it out on update clears it.
type MeterInput struct {
	MeterType   string     `json:"meter_type" validate:"required"`
	MeterSerial string     `json:"meter_serial" validate:"required,notblank"`
	InstallDate *time.Time `json:"install_date" validate:"required"`
	RetireDate  *time.Time `json:"retire_date"`
}

func (in MeterInput) apply(ctx context.Context, tx repository.Querier, e *domain.Meter) error {
	typeID, err := reference(ctx, tx, repository.MeterTypes, "meter_type", in.MeterType)
	if err != nil {
		return err
	}
	e.MeterTypeID = typeID
	e.MeterSerial = in.MeterSerial
	e.InstallDate = in.InstallDate.UTC()
	e.RetireDate = nil
	if in.RetireDate != nil {
		retired := in.RetireDate.UTC()
		e.RetireDate = &retired
	}
	return nil
}

type AccountAssetLinkInput struct {
	Customer string `json:"customer" validate:"required"`
	Meter    string `json:"meter" validate:"required"`
}

func (in AccountAssetLinkInput) apply(ctx context.Context, tx repository.Querier, e *domain.AccountAssetLink) error {
	customerID, err := reference(ctx, tx, repository.Customers, "customer", in.Customer)
	if err != nil {
		return err
	}
	meterID, err := reference(ctx, tx, repository.Meters, "meter", in.Meter)
	if err != nil {
		return err
	}
	e.CustomerID = customerID
	e.MeterID = meterID
	return nil
}

type ConsumptionInput struct {
	Meter         string     `json:"meter" validate:"required"`
	ReadTime      *time.Time `json:"read_time" validate:"required"`
	Reading       *int64     `json:"reading" validate:"required"`
	UnitOfMeasure string     `json:"unit_of_measure" validate:"required"`
}

func (in ConsumptionInput) apply(ctx context.Context, tx repository.Querier, e *domain.Consumption) error {
	unit, err := domain.ParseUnitOfMeasure(in.UnitOfMeasure)
	if err != nil {
		return err
	}
	meterID, err := reference(ctx, tx, repository.Meters, "meter", in.Meter)
	if err != nil {
		return err
	}
	e.MeterID = meterID
	e.ReadTime = in.ReadTime.UTC()
	e.Reading = *in.Reading
	e.UnitOfMeasure = unit
	return nil
}

var maxRate = decimal.NewFromInt(10)

// RateInput carries the rate as a decimal so no float rounding happens
// between the caller and the NUMERIC(5,4) column.
type RateInput struct {
	Rate           *decimal.Decimal `json:"rate" validate:"required"`
	EffectiveStart *Date            `json:"effective_start" validate:"required"`
	EffectiveEnd   *Date            `json:"effective_end"`
	UnitOfMeasure  string           `json:"unit_of_measure" validate:"required"`
}

func (in RateInput) apply(_ context.Context, _ repository.Querier, e *domain.Rate) error {
	rate := *in.Rate
	if !rate.Equal(rate.Round(4)) {
		return fmt.Errorf("%w: rate allows at most 4 decimal places", domain.ErrValidation)
	}
	if rate.Abs().GreaterThanOrEqual(maxRate) {
		return fmt.Errorf("%w: rate allows at most 5 digits", domain.ErrValidation)
	}
	unit, err := domain.ParseUnitOfMeasure(in.UnitOfMeasure)
	if err != nil {
		return err
	}
	e.Rate = rate
	e.EffectiveStart = in.EffectiveStart.Time
	e.EffectiveEnd = nil
	if in.EffectiveEnd != nil {
		end := in.EffectiveEnd.Time
		e.EffectiveEnd = &end
	}
	e.UnitOfMeasure = unit
	return nil
}
