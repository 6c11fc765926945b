package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmailsProcessedTotal counts processed supplier emails by outcome.
	// Labels: status (success, fail), reason (empty on success)
	EmailsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rfqportal",
			Subsystem: "pipeline",
			Name:      "emails_processed_total",
			Help:      "Total number of supplier emails processed by outcome",
		},
		[]string{"status", "reason"},
	)

	// SuppliersCreatedTotal counts suppliers created from email content.
	SuppliersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rfqportal",
			Subsystem: "pipeline",
			Name:      "suppliers_created_total",
			Help:      "Total number of suppliers first seen in a processed email",
		},
	)

	// AuditsTotal counts missing-field audits by status.
	AuditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rfqportal",
			Subsystem: "audit",
			Name:      "checks_total",
			Help:      "Total number of missing-field audits by status",
		},
		[]string{"status"},
	)
)
