package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Contact and proxy outcome labels for the request counters.
const (
	OutcomeAccepted    = "accepted"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "invalid"
	OutcomeFailed      = "failed"
	OutcomeDenied      = "denied"
	OutcomeUpstreamErr = "upstream_error"
)

// Instruments holds the domain counters for the two request pipelines. A nil
// *Instruments is a valid no-op, so handlers record unconditionally.
type Instruments struct {
	contactSubmissions metric.Int64Counter
	proxyFetches       metric.Int64Counter
}

// NewInstruments creates the domain counters on the global meter provider.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter("siteapi/api")

	contact, err := meter.Int64Counter("contact_submissions_total",
		metric.WithDescription("Contact form submissions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create contact counter: %w", err)
	}

	proxyFetches, err := meter.Int64Counter("proxy_fetches_total",
		metric.WithDescription("Image proxy requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create proxy counter: %w", err)
	}

	return &Instruments{
		contactSubmissions: contact,
		proxyFetches:       proxyFetches,
	}, nil
}

// RecordContact counts one contact submission with the given outcome.
func (i *Instruments) RecordContact(ctx context.Context, outcome string) {
	if i == nil {
		return
	}
	i.contactSubmissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordProxyFetch counts one proxy request with the given outcome.
func (i *Instruments) RecordProxyFetch(ctx context.Context, outcome string) {
	if i == nil {
		return
	}
	i.proxyFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
