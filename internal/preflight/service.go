package preflight

import (
	"context"
	"fmt"

	herrors "github.com/hirmes/hirmes/internal/errors"
)

// Service is the part of the client the checks call.
type Service interface {
	CheckTagging(ctx context.Context) error
}

// CheckService probes the tagging endpoint once and derives two results from
// the answer. A transport failure means the service is down. Any HTTP answer
// means it is up; only a success means tagging is offered.
func (c *Checker) CheckService(ctx context.Context, svc Service, url string) []CheckResult {
	service := CheckResult{Name: "service", Required: true, Details: url}
	tagging := CheckResult{Name: "tagging"}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := svc.CheckTagging(ctx)

	switch {
	case err == nil:
		service.Status = StatusPass
		service.Message = "reachable at " + url
		tagging.Status = StatusPass
		tagging.Message = "available"
	case herrors.IsTransport(err):
		service.Status = StatusFail
		service.Message = fmt.Sprintf("unreachable at %s", url)
		service.Details = err.Error()
		tagging.Status = StatusWarn
		tagging.Message = "not checked"
	default:
		service.Status = StatusPass
		service.Message = "reachable at " + url
		tagging.Status = StatusWarn
		tagging.Message = "unavailable; results have no tag column"
		tagging.Details = err.Error()
	}
	return []CheckResult{service, tagging}
}
