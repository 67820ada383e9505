package auth

import (
	"fmt"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
)

type Action string

const (
	View   Action = "view"
	Add    Action = "add"
	Change Action = "change"
	Delete Action = "delete"
)

var Actions = []Action{View, Add, Change, Delete}

var modelNames = map[domain.Kind]string{
	domain.KindCustomer:         "customer",
	domain.KindMeterType:        "metertype",
	domain.KindMeter:            "meter",
	domain.KindAccountAssetLink: "account_asset_link",
	domain.KindConsumption:      "consumption",
	domain.KindRate:             "rate",
}

// PermissionFor returns the codename guarding action on kind, e.g.
// "api.change_metertype".
func PermissionFor(kind domain.Kind, action Action) string {
	return "api." + string(action) + "_" + modelNames[kind]
}

// AllPermissions lists the 24 codenames.
func AllPermissions() []string {
	out := make([]string, 0, len(domain.Kinds)*len(Actions))
	for _, k := range domain.Kinds {
		for _, a := range Actions {
			out = append(out, PermissionFor(k, a))
		}
	}
	return out
}

// IsPermission reports whether codename is one of the known permissions.
func IsPermission(codename string) bool {
	for _, p := range AllPermissions() {
		if p == codename {
			return true
		}
	}
	return false
}

// ExpandPermissions checks each codename. "all" stands for every permission.
func ExpandPermissions(codenames []string) ([]string, error) {
	var out []string
	for _, c := range codenames {
		if c == "all" {
			out = append(out, AllPermissions()...)
			continue
		}
		if !IsPermission(c) {
			return nil, fmt.Errorf("%w: unknown permission %q", domain.ErrValidation, c)
		}
		out = append(out, c)
	}
	return out, nil
}
