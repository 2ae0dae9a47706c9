/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tlscached"

// Server holds the collectors registered by a cache-server process.
type Server struct {
	SessionCount prometheus.Gauge
	Evictions    prometheus.Counter
	Dispatched   *prometheus.CounterVec
	ClientCount  prometheus.Gauge
}

// NewServer builds and registers a Server collector set against reg. Passing
// a fresh prometheus.NewRegistry per process keeps tests hermetic.
func NewServer(reg prometheus.Registerer) *Server {
	s := &Server{
		SessionCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "sessions",
			Help:      "Number of live session entries held by the cache store.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Number of entries forcibly evicted to make room for an add.",
		}),
		Dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "dispatched_total",
			Help:      "Commands dispatched by the cache server, by operation and status.",
		}, []string{"operation", "status"}),
		ClientCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "clients",
			Help:      "Number of connected downstream clients.",
		}),
	}

	reg.MustRegister(s.SessionCount, s.Evictions, s.Dispatched, s.ClientCount)
	return s
}

// Mux holds the collectors registered by a multiplexer process.
type Mux struct {
	ClientCount    prometheus.Gauge
	MultiplexSize  prometheus.Gauge
	Reconnects     prometheus.Counter
	Disconnected   prometheus.Counter
	ForwardFailure prometheus.Counter
}

// NewMux builds and registers a Mux collector set against reg.
func NewMux(reg prometheus.Registerer) *Mux {
	m := &Mux{
		ClientCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mux",
			Name:      "clients",
			Help:      "Number of connected downstream clients.",
		}),
		MultiplexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mux",
			Name:      "multiplex_entries",
			Help:      "Number of in-flight entries in the multiplex table.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mux",
			Name:      "upstream_reconnects_total",
			Help:      "Number of successful upstream reconnects.",
		}),
		Disconnected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mux",
			Name:      "synthetic_disconnects_total",
			Help:      "Number of synthetic ERR_DISCONNECTED responses synthesized for clients.",
		}),
		ForwardFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mux",
			Name:      "forward_failures_total",
			Help:      "Number of scheduling passes aborted because the upstream send buffer was full.",
		}),
	}

	reg.MustRegister(m.ClientCount, m.MultiplexSize, m.Reconnects, m.Disconnected, m.ForwardFailure)
	return m
}
