package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageObserver exports object storage latency and failures. A nil
// observer is valid and records nothing.
type StorageObserver struct {
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	uploadedBytes prometheus.Counter
}

func NewStorageObserver(reg prometheus.Registerer) (*StorageObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &StorageObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gallery",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Latency of object storage calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "storage",
			Name:      "operation_errors_total",
			Help:      "Failed object storage calls.",
		}, []string{"operation"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "storage",
			Name:      "uploaded_bytes_total",
			Help:      "Bytes successfully written to object storage.",
		}),
	}

	var err error
	if o.duration, err = register(reg, o.duration); err != nil {
		return nil, err
	}
	if o.errors, err = register(reg, o.errors); err != nil {
		return nil, err
	}
	if o.uploadedBytes, err = register(reg, o.uploadedBytes); err != nil {
		return nil, err
	}
	return o, nil
}

// register tolerates a second registration (tests build several routers in
// one process) by reusing the collector already present.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register storage metric: %w", err)
	}
	return c, nil
}

func (o *StorageObserver) RecordUpload(d time.Duration, size int, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("upload").Observe(d.Seconds())
	if err != nil {
		o.errors.WithLabelValues("upload").Inc()
		return
	}
	o.uploadedBytes.Add(float64(size))
}

func (o *StorageObserver) RecordRemove(d time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("remove").Observe(d.Seconds())
	if err != nil {
		o.errors.WithLabelValues("remove").Inc()
	}
}
