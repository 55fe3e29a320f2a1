package batch

import (
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/nconklindev/csvmaker/internal/types"
)

// Report summarizes one batch run.
type Report struct {
	RunID    string                   `yaml:"run_id"`
	Format   string                   `yaml:"format"`
	Started  time.Time                `yaml:"started"`
	Finished time.Time                `yaml:"finished"`
	Results  []types.ConversionResult `yaml:"results"`
}

// Failed returns the number of files that did not convert.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// Rows returns the total number of rows written by successful files.
func (r Report) Rows() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n += res.RowsWritten
		}
	}
	return n
}

func (r Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "encode report")
	}
	return errors.Wrap(enc.Close(), "encode report")
}
