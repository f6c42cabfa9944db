// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metermemo

import "github.com/prometheus/client_golang/prometheus"

const resultLabel = "result"

var (
	resultLabels = []string{resultLabel}
	hitLabels    = prometheus.Labels{resultLabel: "hit"}
	missLabels   = prometheus.Labels{resultLabel: "miss"}
)

type storeMetrics struct {
	getCount *prometheus.CounterVec
	getTime  *prometheus.CounterVec
	putCount prometheus.Counter
	putTime  prometheus.Counter
	len      prometheus.Gauge
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*storeMetrics, error) {
	m := &storeMetrics{
		getCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "get_count",
				Help:      "number of get calls, labeled by result",
			},
			resultLabels,
		),
		getTime: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "get_time",
				Help:      "cumulative nanoseconds spent in get calls, labeled by result",
			},
			resultLabels,
		),
		putCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "put_count",
			Help:      "number of put calls",
		}),
		putTime: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "put_time",
			Help:      "cumulative nanoseconds spent in put calls",
		}),
		len: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "len",
			Help:      "number of entries in the store",
		}),
	}

	collectors := []prometheus.Collector{
		m.getCount,
		m.getTime,
		m.putCount,
		m.putTime,
		m.len,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
