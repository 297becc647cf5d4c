package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Subsystem: "tokens",
		Name:      "issued_total",
		Help:      "Number of tokens issued (access and refresh counted separately).",
	})

	tokensRevokedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Subsystem: "tokens",
		Name:      "revoked_total",
		Help:      "Number of tokens added to the blacklist.",
	})
)
