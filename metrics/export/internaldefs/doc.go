// Package internaldefs is the one place that maps engine metric IDs to
// exported families, label values and bucket bounds. The Prometheus and OTel
// exporters both walk [Families], so the two renderings carry the same names
// and labels.
package internaldefs
