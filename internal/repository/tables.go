package repository

import (
	"fmt"
	"strings"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/filter"
)

// Table is the storage metadata for one entity kind. Columns are the
// writable columns; id and created_at are assigned by the database.
type Table struct {
	Kind    domain.Kind
	Name    string
	Columns []string
	Fields  []filter.Field
}

var (
	Customers = &Table{
		Kind:    domain.KindCustomer,
		Name:    "customers",
		Columns: []string{"first_name", "last_name"},
		Fields: []filter.Field{
			{Name: "first_name", Column: "first_name", Class: filter.Text},
			{Name: "last_name", Column: "last_name", Class: filter.Text},
		},
	}
	MeterTypes = &Table{
		Kind:    domain.KindMeterType,
		Name:    "meter_types",
		Columns: []string{"meter_model", "meter_vendor"},
		Fields: []filter.Field{
			{Name: "meter_model", Column: "meter_model", Class: filter.Text},
			{Name: "meter_vendor", Column: "meter_vendor", Class: filter.Text},
		},
	}
	Meters = &Table{
		Kind:    domain.KindMeter,
		Name:    "meters",
		Columns: []string{"meter_type_id", "meter_serial", "install_date", "retire_date"},
		Fields: []filter.Field{
			{Name: "meter_type", Column: "meter_type_id", Class: filter.Ref, Ref: domain.KindMeterType},
			{Name: "meter_serial", Column: "meter_serial", Class: filter.Text},
			{Name: "install_date", Column: "install_date", Class: filter.DateTime},
			{Name: "retire_date", Column: "retire_date", Class: filter.DateTime},
		},
	}
	AccountAssetLinks = &Table{
		Kind:    domain.KindAccountAssetLink,
		Name:    "account_asset_links",
		Columns: []string{"customer_id", "meter_id"},
		Fields: []filter.Field{
			{Name: "customer", Column: "customer_id", Class: filter.Ref, Ref: domain.KindCustomer},
			{Name: "meter", Column: "meter_id", Class: filter.Ref, Ref: domain.KindMeter},
		},
	}
	Consumptions = &Table{
		Kind:    domain.KindConsumption,
		Name:    "consumptions",
		Columns: []string{"meter_id", "read_time", "reading", "unit_of_measure"},
		Fields: []filter.Field{
			{Name: "meter", Column: "meter_id", Class: filter.Ref, Ref: domain.KindMeter},
			{Name: "read_time", Column: "read_time", Class: filter.DateTime},
			{Name: "reading", Column: "reading", Class: filter.Number},
			{Name: "unit_of_measure", Column: "unit_of_measure", Class: filter.Enum},
		},
	}
	Rates = &Table{
		Kind:    domain.KindRate,
		Name:    "rates",
		Columns: []string{"rate", "effective_start", "effective_end", "unit_of_measure"},
		Fields: []filter.Field{
			{Name: "rate", Column: "rate", Class: filter.Decimal},
			{Name: "effective_start", Column: "effective_start", Class: filter.Date},
			{Name: "effective_end", Column: "effective_end", Class: filter.Date},
			{Name: "unit_of_measure", Column: "unit_of_measure", Class: filter.Enum},
		},
	}
)

// TableFor returns the metadata for kind.
func TableFor(kind domain.Kind) *Table {
	for _, t := range []*Table{Customers, MeterTypes, Meters, AccountAssetLinks, Consumptions, Rates} {
		if t.Kind == kind {
			return t
		}
	}
	panic(fmt.Sprintf("repository: no table for kind %q", kind))
}

func (t *Table) selectList() string {
	return "id, " + strings.Join(t.Columns, ", ") + ", created_at"
}

func (t *Table) insertSQL() string {
	named := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		named[i] = ":" + c
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t.Name, strings.Join(t.Columns, ", "), strings.Join(named, ", "), t.selectList())
}

func (t *Table) updateSQL() string {
	set := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		set[i] = c + " = :" + c
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = :id RETURNING %s",
		t.Name, strings.Join(set, ", "), t.selectList())
}
