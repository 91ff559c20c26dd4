// Package metrics counts validation outcomes with Prometheus collectors.
//
// A Recorder is attached to a validator through engine.Hooks, so the core
// stays unaware of metrics.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/ir"
)

// Label values used when a rejection happens before kind selection or an
// acceptance has no code.
const (
	unselected = "none"
	noCode     = "none"
)

// Recorder holds the verdict collectors.
type Recorder struct {
	verdicts *prometheus.CounterVec
	vested   *prometheus.GaugeVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vestlock_verdicts_total",
				Help: "Validated transitions by kind, outcome and rejection code",
			},
			[]string{"kind", "outcome", "code"},
		),
		vested: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vestlock_vested_amount",
				Help: "Vested amount reported by the most recent accepted transition of each kind (approximate above 2^53)",
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{r.verdicts, r.vested} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

// Hooks returns engine hooks that feed the collectors.
func (r *Recorder) Hooks() engine.Hooks {
	return engine.Hooks{
		OnAccept: func(_ *engine.Transition, v *engine.Verdict) {
			r.ObserveAccept(v.Kind, v.Vested)
		},
		OnReject: func(_ *engine.Transition, v *engine.Verdict, err error) {
			var kind engine.Kind
			if v != nil {
				kind = v.Kind
			}
			r.ObserveReject(kind, ir.CodeOf(err))
		},
	}
}

// ObserveAccept records an accepted transition.
func (r *Recorder) ObserveAccept(kind engine.Kind, vested uint64) {
	r.verdicts.WithLabelValues(kindLabel(kind), "accept", noCode).Inc()
	r.vested.WithLabelValues(kindLabel(kind)).Set(float64(vested))
}

// ObserveReject records a rejected transition.
func (r *Recorder) ObserveReject(kind engine.Kind, code ir.Code) {
	label := string(code)
	if label == "" {
		label = noCode
	}
	r.verdicts.WithLabelValues(kindLabel(kind), "reject", label).Inc()
}

func kindLabel(k engine.Kind) string {
	if k == "" {
		return unselected
	}
	return string(k)
}

// Dump writes every gathered sample as one "name{labels} value" line,
// sorted for stable output.
func Dump(g prometheus.Gatherer, w io.Writer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			pairs := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetUntyped() != nil:
				value = m.GetUntyped().GetValue()
			default:
				continue
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(pairs, ","), value))
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
