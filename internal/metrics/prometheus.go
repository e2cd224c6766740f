// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sagehub"

// Registry is the Prometheus registry scraped at /metrics.
var Registry = prometheus.NewRegistry()

var (
	EnvelopesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "envelope",
			Name:      "total",
			Help:      "Total number of envelopes built or verified.",
		},
		[]string{"operation", "result"}, // build|verify, ok|replay|failed
	)

	RoutesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestration",
			Name:      "routes_total",
			Help:      "Total number of routing decisions issued.",
		},
		[]string{"target_kind"},
	)

	EscalationsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestration",
			Name:      "escalations_total",
			Help:      "Total number of low-confidence escalations.",
		},
	)

	RouteDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orchestration",
			Name:      "route_duration_seconds",
			Help:      "Time to produce a routing decision.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	RegistrationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "registrations_total",
			Help:      "Total number of agent registration attempts.",
		},
		[]string{"result"}, // admitted|rejected
	)

	DocumentsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "intake_total",
			Help:      "Total number of document intake attempts.",
		},
		[]string{"result"}, // completed|failed
	)
)
