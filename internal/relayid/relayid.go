// Package relayid converts between internal row ids and the opaque global
// ids handed to API callers. An opaque id is base64("<Kind>:<id>"), so one id
// space covers all six tables without collisions.
package relayid

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
)

func Encode(kind domain.Kind, id int64) string {
	return base64.StdEncoding.EncodeToString([]byte(string(kind) + ":" + strconv.FormatInt(id, 10)))
}

// Decode parses an opaque id into its kind and row id.
func Decode(opaque string) (domain.Kind, int64, error) {
	opaque = strings.TrimSpace(opaque)
	raw, err := base64.StdEncoding.DecodeString(opaque)
	if err != nil {
		// accept the URL safe alphabet too, padded or not
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(opaque, "="))
	}
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q is not a global id", domain.ErrMalformedID, opaque)
	}
	name, num, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", 0, fmt.Errorf("%w: %q is not a global id", domain.ErrMalformedID, opaque)
	}
	kind := domain.Kind(name)
	if !kind.Valid() {
		return "", 0, fmt.Errorf("%w: unknown type %q", domain.ErrMalformedID, name)
	}
	id, err := strconv.ParseInt(num, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: bad row id %q", domain.ErrMalformedID, num)
	}
	return kind, id, nil
}

// DecodeAs decodes opaque and requires it to address want. Used for the
// target id of read, update and delete.
func DecodeAs(want domain.Kind, opaque string) (int64, error) {
	kind, id, err := Decode(opaque)
	if err != nil {
		return 0, err
	}
	if kind != want {
		return 0, fmt.Errorf("%w: expected %s id, got %s", domain.ErrMalformedID, want, kind)
	}
	return id, nil
}

// DecodeRef decodes a foreign key input. A well formed id that points at the
// wrong table is an invalid reference rather than a malformed id.
func DecodeRef(want domain.Kind, opaque string) (int64, error) {
	kind, id, err := Decode(opaque)
	if err != nil {
		return 0, err
	}
	if kind != want {
		return 0, fmt.Errorf("%w: expected %s, got %s", domain.ErrInvalidReference, want, kind)
	}
	return id, nil
}
