package otel

import (
	"context"
	"errors"
	"fmt"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goGuard.MetricsSnapshot
	AuditDroppedByEvent() map[string]uint64
}

// family is one observable counter fed by several engine counters, each
// observed with its own attribute set.
type family struct {
	instrument metric.Int64ObservableCounter
	series     []familySeries
}

type familySeries struct {
	id    goGuard.MetricID
	attrs metric.ObserveOption
}

type latency struct {
	buckets metric.Int64ObservableGauge
	bounds  []metric.ObserveOption
	sum     metric.Float64ObservableCounter
	count   metric.Int64ObservableCounter
}

// OTelExporter owns the callback registration. Close unregisters it.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	families     []family
	latency      latency
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers one observable instrument per goguard_* family on
// meter, with the same names and label keys the Prometheus exporter uses.
func NewOTelExporter(meter metric.Meter, engine *goGuard.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	observables := make([]metric.Observable, 0, len(internaldefs.Families)+4)

	for _, def := range internaldefs.Families {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		f := family{instrument: ins, series: make([]familySeries, 0, len(def.Series))}
		for _, s := range def.Series {
			kv := make([]attribute.KeyValue, len(def.Labels))
			for i, label := range def.Labels {
				kv[i] = attribute.String(label, s.Values[i])
			}
			f.series = append(f.series, familySeries{id: s.ID, attrs: metric.WithAttributes(kv...)})
		}
		e.families = append(e.families, f)
		observables = append(observables, ins)
	}

	if err := e.registerLatency(meter); err != nil {
		return nil, err
	}
	observables = append(observables, e.latency.buckets, e.latency.sum, e.latency.count)

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) registerLatency(meter metric.Meter) error {
	h := internaldefs.Latency
	var err error

	if e.latency.buckets, err = meter.Int64ObservableGauge(h.Name+"_bucket",
		metric.WithDescription(h.Help+" Cumulative count per le bound.")); err != nil {
		return fmt.Errorf("create gauge %s_bucket: %w", h.Name, err)
	}
	if e.latency.sum, err = meter.Float64ObservableCounter(h.Name+"_sum",
		metric.WithDescription(h.Help+" Total observed seconds."), metric.WithUnit("s")); err != nil {
		return fmt.Errorf("create counter %s_sum: %w", h.Name, err)
	}
	if e.latency.count, err = meter.Int64ObservableCounter(h.Name+"_count",
		metric.WithDescription(h.Help+" Observation count.")); err != nil {
		return fmt.Errorf("create counter %s_count: %w", h.Name, err)
	}

	e.latency.bounds = make([]metric.ObserveOption, len(internaldefs.HistogramBounds))
	for i, le := range internaldefs.HistogramBounds {
		e.latency.bounds[i] = metric.WithAttributes(attribute.String("le", le))
	}
	return nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, f := range e.families {
		for _, s := range f.series {
			o.ObserveInt64(f.instrument, int64(snapshot.Counters[s.id]), s.attrs)
		}
	}

	if raw, ok := snapshot.Histograms[internaldefs.Latency.ID]; ok {
		cumulative := internaldefs.CumulativeBuckets(raw)
		for i, bound := range e.latency.bounds {
			o.ObserveInt64(e.latency.buckets, int64(cumulative[i]), bound)
		}
		o.ObserveFloat64(e.latency.sum, snapshot.LatencySum[internaldefs.Latency.ID].Seconds())
		o.ObserveInt64(e.latency.count, int64(cumulative[len(cumulative)-1]))
	}

	for event, n := range e.source.AuditDroppedByEvent() {
		o.ObserveInt64(e.auditDropped, int64(n), metric.WithAttributes(attribute.String(internaldefs.AuditDroppedLabel, event)))
	}
	return nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
