// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeDuplicate   = "duplicate"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

var (
	// Registrations counts registration attempts by outcome.
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharebite_registrations_total",
		Help: "Total number of registration attempts by outcome",
	}, []string{"outcome"})

	// Logins counts login attempts by outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharebite_logins_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// DonationsCreated counts posted donations.
	DonationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharebite_donations_created_total",
		Help: "Total number of food donations posted",
	})

	// Claims counts claim attempts by outcome.
	Claims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharebite_claims_total",
		Help: "Total number of claim attempts by outcome",
	}, []string{"outcome"})
)
