package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rfielding/checkpoint-ctl/telemetry"
)

// writeTo writes to path, or to stdout when path is "-".
func writeTo(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// newMetrics returns a registry-backed metrics set when path is not empty.
func newMetrics(path string) (*prometheus.Registry, *telemetry.Metrics, error) {
	if path == "" {
		return nil, nil, nil
	}
	reg := prometheus.NewRegistry()
	m, err := telemetry.New(reg)
	if err != nil {
		return nil, nil, err
	}
	return reg, m, nil
}

func dumpMetrics(stdout io.Writer, path string, reg *prometheus.Registry) error {
	if reg == nil {
		return nil
	}
	return writeTo(stdout, path, func(w io.Writer) error {
		return telemetry.WriteText(w, reg)
	})
}
