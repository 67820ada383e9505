package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind names one of the six entity tables. It is also the type prefix
// carried inside every opaque id.
type Kind string

const (
	KindCustomer         Kind = "Customer"
	KindMeterType        Kind = "MeterType"
	KindMeter            Kind = "Meter"
	KindAccountAssetLink Kind = "AccountAssetLink"
	KindConsumption      Kind = "Consumption"
	KindRate             Kind = "Rate"
)

// Kinds lists every entity kind in dependency order.
var Kinds = []Kind{KindCustomer, KindMeterType, KindMeter, KindAccountAssetLink, KindConsumption, KindRate}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// UnitOfMeasure is stored as a one letter code.
type UnitOfMeasure string

const (
	Liter  UnitOfMeasure = "L"
	Gallon UnitOfMeasure = "G"
)

// ParseUnitOfMeasure accepts the stored code or the unit name, in any case.
func ParseUnitOfMeasure(s string) (UnitOfMeasure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "liter", "litre":
		return Liter, nil
	case "g", "gallon":
		return Gallon, nil
	}
	return "", fmt.Errorf("%w: unit_of_measure %q is not one of L, G", ErrValidation, s)
}

type Customer struct {
	ID        int64     `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	CreatedAt time.Time `db:"created_at"`
}

type MeterType struct {
	ID          int64     `db:"id"`
	MeterModel  string    `db:"meter_model"`
	MeterVendor string    `db:"meter_vendor"`
	CreatedAt   time.Time `db:"created_at"`
}

type Meter struct {
	ID          int64      `db:"id"`
	MeterTypeID int64      `db:"meter_type_id"`
	MeterSerial string     `db:"meter_serial"`
	InstallDate time.Time  `db:"install_date"`
	RetireDate  *time.Time `db:"retire_date"`
	CreatedAt   time.Time  `db:"created_at"`
}

// AccountAssetLink joins a customer account to an installed meter.
type AccountAssetLink struct {
	ID         int64     `db:"id"`
	CustomerID int64     `db:"customer_id"`
	MeterID    int64     `db:"meter_id"`
	CreatedAt  time.Time `db:"created_at"`
}

type Consumption struct {
	ID            int64         `db:"id"`
	MeterID       int64         `db:"meter_id"`
	ReadTime      time.Time     `db:"read_time"`
	Reading       int64         `db:"reading"`
	UnitOfMeasure UnitOfMeasure `db:"unit_of_measure"`
	CreatedAt     time.Time     `db:"created_at"`
}

// Rate is a billing rate per unit. Rate.Rate is NUMERIC(5,4).
type Rate struct {
	ID             int64           `db:"id"`
	Rate           decimal.Decimal `db:"rate"`
	EffectiveStart time.Time       `db:"effective_start"`
	EffectiveEnd   *time.Time      `db:"effective_end"`
	UnitOfMeasure  UnitOfMeasure   `db:"unit_of_measure"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Entity is implemented by the six row types.
type Entity interface {
	Customer | MeterType | Meter | AccountAssetLink | Consumption | Rate
	RowKey() (int64, time.Time)
}

// RowKey returns the keyset used for stable ordering: id and creation time.
func (c Customer) RowKey() (int64, time.Time)         { return c.ID, c.CreatedAt }
func (m MeterType) RowKey() (int64, time.Time)        { return m.ID, m.CreatedAt }
func (m Meter) RowKey() (int64, time.Time)            { return m.ID, m.CreatedAt }
func (l AccountAssetLink) RowKey() (int64, time.Time) { return l.ID, l.CreatedAt }
func (c Consumption) RowKey() (int64, time.Time)      { return c.ID, c.CreatedAt }
func (r Rate) RowKey() (int64, time.Time)             { return r.ID, r.CreatedAt }

// User is an API principal known to the identity provider.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	IsActive     bool   `db:"is_active"`
}
