package http

import (
	"time"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/relayid"
)

// Nodes are the wire form of entities: every id, including foreign keys,
// is the opaque global id.

type customerNode struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func customerView(c *domain.Customer) any {
	return customerNode{ID: relayid.Encode(domain.KindCustomer, c.ID), FirstName: c.FirstName, LastName: c.LastName}
}

type meterTypeNode struct {
	ID          string `json:"id"`
	MeterModel  string `json:"meter_model"`
	MeterVendor string `json:"meter_vendor"`
}

func meterTypeView(m *domain.MeterType) any {
	return meterTypeNode{ID: relayid.Encode(domain.KindMeterType, m.ID), MeterModel: m.MeterModel, MeterVendor: m.MeterVendor}
}

type meterNode struct {
	ID          string     `json:"id"`
	MeterType   string     `json:"meter_type"`
	MeterSerial string     `json:"meter_serial"`
	InstallDate time.Time  `json:"install_date"`
	RetireDate  *time.Time `json:"retire_date"`
}

func meterView(m *domain.Meter) any {
	return meterNode{
		ID:          relayid.Encode(domain.KindMeter, m.ID),
		MeterType:   relayid.Encode(domain.KindMeterType, m.MeterTypeID),
		MeterSerial: m.MeterSerial,
		InstallDate: m.InstallDate,
		RetireDate:  m.RetireDate,
	}
}

type accountAssetLinkNode struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Meter    string `json:"meter"`
}

func accountAssetLinkView(l *domain.AccountAssetLink) any {
	return accountAssetLinkNode{
		ID:       relayid.Encode(domain.KindAccountAssetLink, l.ID),
		Customer: relayid.Encode(domain.KindCustomer, l.CustomerID),
		Meter:    relayid.Encode(domain.KindMeter, l.MeterID),
	}
}

type consumptionNode struct {
	ID            string    `json:"id"`
	Meter         string    `json:"meter"`
	ReadTime      time.Time `json:"read_time"`
	Reading       int64     `json:"reading"`
	UnitOfMeasure string    `json:"unit_of_measure"`
}

func consumptionView(c *domain.Consumption) any {
	return consumptionNode{
		ID:            relayid.Encode(domain.KindConsumption, c.ID),
		Meter:         relayid.Encode(domain.KindMeter, c.MeterID),
		ReadTime:      c.ReadTime,
		Reading:       c.Reading,
		UnitOfMeasure: string(c.UnitOfMeasure),
	}
}

type rateNode struct {
	ID             string  `json:"id"`
	Rate           string  `json:"rate"`
	EffectiveStart string  `json:"effective_start"`
	EffectiveEnd   *string `json:"effective_end"`
	UnitOfMeasure  string  `json:"unit_of_measure"`
}

func rateView(r *domain.Rate) any {
	n := rateNode{
		ID:             relayid.Encode(domain.KindRate, r.ID),
		Rate:           r.Rate.StringFixed(4),
		EffectiveStart: r.EffectiveStart.Format(time.DateOnly),
		UnitOfMeasure:  string(r.UnitOfMeasure),
	}
	if r.EffectiveEnd != nil {
		end := r.EffectiveEnd.Format(time.DateOnly)
		n.EffectiveEnd = &end
	}
	return n
}
