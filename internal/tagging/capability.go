// Package tagging detects the optional tagging capability of the service and
// fans per-row tag requests out for a result set.
package tagging

import (
	"context"
	"log/slog"

	herrors "github.com/hirmes/hirmes/internal/errors"
)

// Capability is the tri-state availability of the tagging endpoint for one
// result set.
type Capability int

const (
	// Unknown means the probe has not finished.
	Unknown Capability = iota
	// Available means per-row enrichment runs.
	Available
	// Unavailable means the tag column is removed and no rows are enriched.
	Unavailable
)

func (c Capability) String() string {
	switch c {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Checker performs the capability check. A nil error means available.
type Checker interface {
	CheckTagging(ctx context.Context) error
}

// Probe runs one capability check. Failures are logged at debug and never
// surfaced: any error simply means Unavailable.
func Probe(ctx context.Context, checker Checker) Capability {
	if err := checker.CheckTagging(ctx); err != nil {
		slog.Debug("tagging_unavailable",
			herrors.LogAttrs(herrors.Wrap(herrors.ErrCodeCapabilityUnavailable, err))...)
		return Unavailable
	}
	slog.Debug("tagging_available")
	return Available
}
