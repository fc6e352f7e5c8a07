package report

import (
	"io"

	prom "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

const metricName = "peakmem_resident_memory_bytes"

// WritePrometheus renders the report in the Prometheus text exposition
// format, suitable for the node exporter textfile collector.
func (r *Report) WritePrometheus(w io.Writer) error {
	family := &prom.MetricFamily{
		Name: proto.String(metricName),
		Help: proto.String("Resident memory observed by peakmem."),
		Type: prom.MetricType_GAUGE.Enum(),
	}

	for _, row := range r.rows() {
		if row.usage.Current != nil {
			family.Metric = append(family.Metric, gauge(row.scope, "current", *row.usage.Current))
		}
		if row.usage.Peak != nil {
			family.Metric = append(family.Metric, gauge(row.scope, "peak", *row.usage.Peak))
		}
	}
	if len(family.Metric) == 0 {
		return nil
	}

	_, err := expfmt.MetricFamilyToText(w, family)
	return err
}

func gauge(scope, stat string, value uint64) *prom.Metric {
	return &prom.Metric{
		Label: []*prom.LabelPair{
			{Name: proto.String("scope"), Value: proto.String(scope)},
			{Name: proto.String("stat"), Value: proto.String(stat)},
		},
		Gauge: &prom.Gauge{Value: proto.Float64(float64(value))},
	}
}
