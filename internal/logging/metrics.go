// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics. Registered once on the default registry; every
// Logger instance in the process shares them.
var (
	recordsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casaops_log_records_emitted_total",
		Help: "Log records that passed the level filter, by level.",
	}, []string{"level"})

	recordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casaops_log_records_dropped_total",
		Help: "Log records dropped by the level filter, by level.",
	}, []string{"level"})

	rotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casaops_log_rotations_total",
		Help: "Log file rotations performed.",
	})

	sinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casaops_log_sink_errors_total",
		Help: "Write failures per sink.",
	}, []string{"sink"})
)
