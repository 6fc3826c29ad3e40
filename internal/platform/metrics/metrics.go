package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ProfilesUpserted    prometheus.Counter
	IdentifierConflicts prometheus.Counter
	InvitationsIssued   prometheus.Counter
	InvitationsAccepted prometheus.Counter
	PartiesApproved     prometheus.Counter
	PartiesRejected     prometheus.Counter
	TokenVerifySeconds  prometheus.Histogram
	RequestSeconds      prometheus.Histogram
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ProfilesUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerdesk_profiles_upserted_total",
			Help: "Total number of profile upserts accepted",
		}),
		IdentifierConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerdesk_identifier_conflicts_total",
			Help: "Total number of tax identifier writes rejected as duplicates",
		}),
		InvitationsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerdesk_invitations_issued_total",
			Help: "Total number of party invitations issued",
		}),
		InvitationsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerdesk_invitations_accepted_total",
			Help: "Total number of party invitations accepted",
		}),
		PartiesApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerdesk_parties_approved_total",
			Help: "Total number of party records transitioned to approved",
		}),
		PartiesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerdesk_parties_rejected_total",
			Help: "Total number of party records transitioned to rejected",
		}),
		TokenVerifySeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerdesk_invitation_token_verify_seconds",
			Help:    "Latency of invitation token verification, dominated by the bcrypt scan",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RequestSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerdesk_http_request_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}
