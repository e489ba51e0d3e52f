package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rfielding/checkpoint-ctl/kernel"
)

// WriteReport writes res as indented JSON.
func WriteReport(w io.Writer, res *kernel.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// ReadReport decodes a report written by WriteReport.
func ReadReport(r io.Reader) (*kernel.Result, error) {
	var res kernel.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &res, nil
}

// LoadReport reads a report file.
func LoadReport(path string) (*kernel.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadReport(f)
}

// WriteTraceJSONL writes one snapshot per line.
func WriteTraceJSONL(w io.Writer, trace []kernel.Snapshot) error {
	enc := json.NewEncoder(w)
	for i := range trace {
		if err := enc.Encode(&trace[i]); err != nil {
			return fmt.Errorf("tick %d: %w", trace[i].Tick, err)
		}
	}
	return nil
}
