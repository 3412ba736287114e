// Package metrics exports the training progress to prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the collectors of one training run
type Metrics struct {
	Epochs   prometheus.Counter
	Steps    *prometheus.CounterVec
	Accuracy *prometheus.GaugeVec
	Examples prometheus.Counter
	Uploads  prometheus.Counter
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objtrain",
			Name:      "epochs_total",
			Help:      "Training epochs completed.",
		}),
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "objtrain",
			Name:      "steps_total",
			Help:      "Training steps by outcome.",
		}, []string{"outcome"}),
		Accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "objtrain",
			Name:      "accuracy_percent",
			Help:      "Accuracy of the last epoch by split.",
		}, []string{"split"}),
		Examples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objtrain",
			Name:      "examples_read_total",
			Help:      "Examples read from the object store.",
		}),
		Uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objtrain",
			Name:      "artifact_uploads_total",
			Help:      "Model artifacts uploaded.",
		}),
	}
	for _, c := range []prometheus.Collector{m.Epochs, m.Steps, m.Accuracy, m.Examples, m.Uploads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Step counts one training step
func (m *Metrics) Step(accepted bool) {
	if accepted {
		m.Steps.WithLabelValues("accepted").Inc()
	} else {
		m.Steps.WithLabelValues("undone").Inc()
	}
}

// Epoch records the accuracies of a finished epoch
func (m *Metrics) Epoch(_ int, train, validation float64) {
	m.Epochs.Inc()
	m.Accuracy.WithLabelValues("train").Set(train)
	m.Accuracy.WithLabelValues("validation").Set(validation)
}

// Test records the accuracy on the test split
func (m *Metrics) Test(accuracy float64) {
	m.Accuracy.WithLabelValues("test").Set(accuracy)
}

// ExamplesRead counts examples read by the input pipeline
func (m *Metrics) ExamplesRead(n int) {
	m.Examples.Add(float64(n))
}

// Uploaded counts an uploaded artifact
func (m *Metrics) Uploaded() {
	m.Uploads.Inc()
}
