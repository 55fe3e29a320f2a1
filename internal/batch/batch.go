// Package batch converts a list of input files, each to its own CSV file.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nconklindev/csvmaker/internal/converter"
	"github.com/nconklindev/csvmaker/internal/logger"
	"github.com/nconklindev/csvmaker/internal/types"
)

// Progress is sent once per finished file.
type Progress struct {
	// Index is the file's position in the input list.
	Index  int
	Done   int
	Total  int
	Result types.ConversionResult
}

// Percent is the completed fraction of the batch, between 0 and 1.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Done) / float64(p.Total)
}

type Runner struct {
	Job converter.Job
	// OutputDir receives the CSV files. Empty means next to each input.
	OutputDir string
	Workers   int
	Logger    *zap.SugaredLogger
}

// OutputPath returns where the CSV for input is written: the input's base
// name with a .csv extension, in dir or the input's own directory.
func OutputPath(input, dir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".csv"
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}

// CheckSameExtension reports an error when files do not all share one extension.
func CheckSameExtension(files []string) error {
	if len(files) == 0 {
		return nil
	}
	want := strings.ToLower(filepath.Ext(files[0]))
	for _, f := range files[1:] {
		if ext := strings.ToLower(filepath.Ext(f)); ext != want {
			return errors.WithHint(
				errors.Newf("%s has extension %q, expected %q", filepath.Base(f), ext, want),
				"all files in one batch must be of the same type")
		}
	}
	return nil
}

// Run converts every file and returns a report with one result per file,
// in input order. A failed file never has a CSV left behind. progress may
// be nil; it is not closed.
func (r *Runner) Run(ctx context.Context, files []string, progress chan<- Progress) Report {
	log := r.Logger
	if log == nil {
		log = logger.Named("batch")
	}

	report := Report{
		RunID:   uuid.Must(uuid.NewV7()).String(),
		Format:  r.Job.Format.String(),
		Started: time.Now(),
		Results: make([]types.ConversionResult, len(files)),
	}
	log = log.With(logger.FieldRunID, report.RunID)

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	log.Infow("batch started", "files", len(files), logger.FieldWorkers, workers, logger.FieldFormat, report.Format)

	if r.Job.Format == types.FormatDelimited && converter.SuspiciousDelimiter(r.Job.Delimiter) {
		log.Warnw("delimiter is a letter or digit", "delimiter", string(r.Job.Delimiter))
	}

	outputs := r.planOutputs(files)

	var (
		g    errgroup.Group
		done atomic.Int64
	)
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			res := r.convertOne(ctx, file, outputs[i])
			report.Results[i] = res

			if res.OK() {
				log.Infow("file converted", logger.FieldFile, file, logger.FieldOutput, res.OutputFile, logger.FieldRows, res.RowsWritten)
			} else {
				log.Warnw("file failed", logger.FieldFile, file, logger.FieldKind, string(res.Kind),
					logger.FieldLine, res.LineNumber, logger.FieldError, res.Message)
			}

			if progress != nil {
				p := Progress{Index: i, Done: int(done.Add(1)), Total: len(files), Result: res}
				select {
				case progress <- p:
				case <-ctx.Done():
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Finished = time.Now()
	log.Infow("batch finished", "failed", report.Failed(), logger.FieldDuration, report.Finished.Sub(report.Started).Milliseconds())
	return report
}

type plannedOutput struct {
	path string
	// err is set when the file must not be converted.
	err error
}

// planOutputs assigns an output path to every file, refusing any that would
// overwrite an input of the batch or another file's output.
func (r *Runner) planOutputs(files []string) []plannedOutput {
	planned := make([]plannedOutput, len(files))

	inputs := make(map[string]string, len(files))
	for _, file := range files {
		key := absPath(file)
		if _, ok := inputs[key]; !ok {
			inputs[key] = file
		}
	}

	owners := make(map[string]string, len(files))
	for i, file := range files {
		out := OutputPath(file, r.OutputDir)
		key := absPath(out)
		planned[i].path = out

		if owner, ok := owners[key]; ok {
			planned[i].err = errors.Newf("output %s is already claimed by %s", out, owner)
			continue
		}
		owners[key] = file

		switch input, ok := inputs[key]; {
		case ok && input == file:
			planned[i].err = errors.WithHint(errors.Newf("output %s would overwrite the input", out),
				"choose a different output directory")
		case ok:
			planned[i].err = errors.WithHint(errors.Newf("output %s would overwrite input %s", out, input),
				"choose a different output directory")
		}
	}
	return planned
}

func (r *Runner) convertOne(ctx context.Context, file string, out plannedOutput) types.ConversionResult {
	if out.err != nil {
		return types.Failure(file, types.KindResource, 0, out.err)
	}
	if err := ctx.Err(); err != nil {
		return types.Failure(file, types.KindCanceled, 0, errors.Wrap(err, "batch interrupted"))
	}

	res := converter.ConvertFile(ctx, r.Job, file, out.path)
	if !res.OK() && res.OutputFile != "" {
		if err := os.Remove(res.OutputFile); err != nil && !os.IsNotExist(err) {
			res.Message += "; partial output not removed: " + err.Error()
		} else {
			res.OutputFile = ""
		}
	}
	return res
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
