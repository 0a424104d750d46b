// Package validation checks request payloads before they reach the services.
// Failures are reported per field so handlers can return them to the client.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
)

// Error collects field level validation failures, keyed by JSON path
// (for example "events[2].dateSold").
type Error struct {
	Fields map[string]string
}

// Error lists the failures sorted by field so the message is stable.
func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(msgs, "; ")
}

// orNil returns a *Error when fields is non-empty.
func orNil(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Fields: fields}
}

// ValidateReportID checks that id is a report identifier as issued by
// the report store (a canonical UUID).
func ValidateReportID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: report ID is required", apperrors.ErrInvalidUUID)
	}
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != strings.ToLower(id) {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidUUID, id)
	}
	return nil
}
