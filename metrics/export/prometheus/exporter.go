package prometheus

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() goGuard.MetricsSnapshot
	AuditDroppedByEvent() map[string]uint64
}

// PrometheusExporter renders engine metrics on demand. Every scrape reads a
// fresh snapshot.
type PrometheusExporter struct {
	source metricsSource
}

func NewPrometheusExporter(engine *goGuard.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource reads from any snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render for mounting under /metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the exposition text, or "" when metrics are disabled and no
// audit event was ever dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDroppedByEvent()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && sum(dropped) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, fam := range internaldefs.Families {
		header(&b, fam.Name, fam.Help, "counter")
		for _, s := range fam.Series {
			sample(&b, fam.Name, fam.Labels, s.Values, strconv.FormatUint(snapshot.Counters[s.ID], 10))
		}
	}

	if raw, ok := snapshot.Histograms[internaldefs.Latency.ID]; ok {
		h := internaldefs.Latency
		cumulative := internaldefs.CumulativeBuckets(raw)
		header(&b, h.Name, h.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			sample(&b, h.Name+"_bucket", []string{"le"}, []string{le}, strconv.FormatUint(cumulative[i], 10))
		}
		seconds := snapshot.LatencySum[h.ID].Seconds()
		sample(&b, h.Name+"_sum", nil, nil, strconv.FormatFloat(seconds, 'g', -1, 64))
		sample(&b, h.Name+"_count", nil, nil, strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	}

	events := make([]string, 0, len(dropped))
	for event := range dropped {
		events = append(events, event)
	}
	sort.Strings(events)
	header(&b, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, "counter")
	for _, event := range events {
		sample(&b, internaldefs.AuditDroppedName, []string{internaldefs.AuditDroppedLabel}, []string{event}, strconv.FormatUint(dropped[event], 10))
	}

	return b.String()
}

func header(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	b.WriteString("# TYPE " + name + " " + kind + "\n")
}

func sample(b *strings.Builder, name string, labels, values []string, value string) {
	b.WriteString(name)
	if len(labels) > 0 {
		b.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(l + `="` + escapeLabel(values[i]) + `"`)
		}
		b.WriteByte('}')
	}
	b.WriteString(" " + value + "\n")
}

func sum(m map[string]uint64) uint64 {
	var total uint64
	for _, v := range m {
		total += v
	}
	return total
}

var (
	helpEscaper  = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	labelEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)
)

func escapeHelp(s string) string  { return helpEscaper.Replace(s) }
func escapeLabel(s string) string { return labelEscaper.Replace(s) }
