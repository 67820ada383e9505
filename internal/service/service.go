package service

import (
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/repository"
)

type Services struct {
	Repos             *repository.Repos
	Customers         *Resource[domain.Customer, CustomerInput]
	MeterTypes        *Resource[domain.MeterType, MeterTypeInput]
	Meters            *Resource[domain.Meter, MeterInput]
	AccountAssetLinks *Resource[domain.AccountAssetLink, AccountAssetLinkInput]
	Consumptions      *Resource[domain.Consumption, ConsumptionInput]
	Rates             *Resource[domain.Rate, RateInput]
}

func New(db *sqlx.DB, log zerolog.Logger) *Services {
	repos := repository.New(db)
	return &Services{
		Repos:             repos,
		Customers:         newResource[domain.Customer, CustomerInput](repository.Customers, repos, log),
		MeterTypes:        newResource[domain.MeterType, MeterTypeInput](repository.MeterTypes, repos, log),
		Meters:            newResource[domain.Meter, MeterInput](repository.Meters, repos, log),
		AccountAssetLinks: newResource[domain.AccountAssetLink, AccountAssetLinkInput](repository.AccountAssetLinks, repos, log),
		Consumptions:      newResource[domain.Consumption, ConsumptionInput](repository.Consumptions, repos, log),
		Rates:             newResource[domain.Rate, RateInput](repository.Rates, repos, log),
	}
}
