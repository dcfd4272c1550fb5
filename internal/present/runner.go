package present

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"fpl-league-stats/internal/stats"
)

// Runner prints statistics one after another, optionally waiting for Enter
// between them. Prompts go to Prompt so Out can be redirected to a file.
type Runner struct {
	Out    io.Writer
	Prompt io.Writer
	In     io.Reader
	Pause  bool
	Format Formatter
	Log    logrus.FieldLogger
}

func NewRunner(out io.Writer, pause bool, log logrus.FieldLogger) *Runner {
	return &Runner{
		Out:    out,
		Prompt: os.Stderr,
		In:     os.Stdin,
		Pause:  pause,
		Format: NewFormatter(language.English),
		Log:    log,
	}
}

// Summary counts what a run printed.
type Summary struct {
	Printed int
	Skipped []string
}

// Run computes and prints every key in order. Keys that hit a data gap are
// reported inline and skipped; any other error stops the run.
func (r *Runner) Run(a *stats.Analyzer, keys []string) (Summary, error) {
	var sum Summary
	in := bufio.NewReader(r.In)
	for i, key := range keys {
		t, err := a.Compute(key)
		switch {
		case errors.Is(err, stats.ErrDataGap):
			sum.Skipped = append(sum.Skipped, key)
			if r.Log != nil {
				r.Log.WithField("statistic", key).WithError(err).Debug("Skipping statistic")
			}
			if _, err := fmt.Fprintf(r.Out, "Skipped: %v\n\n", err); err != nil {
				return sum, err
			}
			continue
		case err != nil:
			return sum, err
		}
		if err := WriteTable(r.Out, t, r.Format); err != nil {
			return sum, err
		}
		sum.Printed++

		if r.Pause && i < len(keys)-1 {
			if _, err := fmt.Fprint(r.Prompt, "Press Enter for the next statistic..."); err != nil {
				return sum, err
			}
			// EOF on stdin just stops pausing
			if _, err := in.ReadString('\n'); err != nil {
				r.Pause = false
			}
		}
	}
	return sum, nil
}

// Keys returns the catalog keys in order, or the requested subset in the
// requested order. Unknown keys are an error.
func Keys(only []string) ([]string, error) {
	known := map[string]bool{}
	var all []string
	for _, info := range stats.Catalog() {
		known[info.Key] = true
		all = append(all, info.Key)
	}
	if len(only) == 0 {
		return all, nil
	}
	var errs []error
	for _, k := range only {
		if !known[k] {
			errs = append(errs, fmt.Errorf("%w: %q", stats.ErrUnknownStatistic, k))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return only, nil
}

// OpenOutput returns stdout when path is empty, otherwise a created file.
// The close func is always safe to call.
func OpenOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return f, f.Close, nil
}
