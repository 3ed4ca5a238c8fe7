package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	creditDeductions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aadc_credit_deductions_total",
		Help: "Credit deduction attempts through the CLI query endpoint.",
	}, []string{"result"})

	cliAuthorizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aadc_cli_authorizations_total",
		Help: "Completed device-authorization handshakes.",
	}, []string{"result"})

	betaSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aadc_beta_requests_total",
		Help: "Accepted beta access requests.",
	})
)
