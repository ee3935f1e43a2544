package analyzer

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/hexdance/hexdance/internal/format"
	"github.com/hexdance/hexdance/internal/input"
	"github.com/hexdance/hexdance/internal/utils"
)

// FileResult is the analysis of one file in a batch.
type FileResult struct {
	Path string `json:"path"`
	// Name is the base name of Path.
	Name string `json:"name"`
	Size int64  `json:"size"`
	// ModTime is the last modification time reported by the file system.
	ModTime  time.Time     `json:"modified"`
	Result   Result        `json:"result"`
	Duration time.Duration `json:"duration"`
	// Err is set when the file could not be loaded.
	Err error `json:"-"`
}

// Summary contains counts over a batch report
type Summary struct {
	Total      int `json:"total"`
	Recognized int `json:"recognized"`
	Unknown    int `json:"unknown"`
	Malformed  int `json:"malformed"`
	Errors     int `json:"errors"`
}

// Report is the outcome of a batch run. Results follow the order of the
// input paths.
type Report struct {
	Results []FileResult `json:"results"`
	Summary Summary      `json:"summary"`
}

// Batch analyzes many files on a fixed pool of workers.
type Batch struct {
	analyzer *Analyzer
	reader   input.Reader
	workers  int
}

// NewBatch creates a batch runner. workers <= 0 means one per CPU.
func NewBatch(a *Analyzer, reader input.Reader, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batch{analyzer: a, reader: reader, workers: workers}
}

// Run analyzes paths. On cancellation no further files are started and the
// report holds only the files that finished, together with ctx.Err().
func (b *Batch) Run(ctx context.Context, paths []string) (*Report, error) {
	logger := utils.LoggerFromContext(ctx)
	if logger == nil {
		logger = b.analyzer.logger
	}
	log := logger.WithComponent(utils.ComponentBatch)

	results := make([]FileResult, len(paths))
	done := make([]bool, len(paths))

	workers := b.workers
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.analyzeFile(logger, paths[i])
				done[i] = true
			}
		}()
	}

dispatch:
	for i := range paths {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	report := &Report{Results: make([]FileResult, 0, len(paths))}
	for i, r := range results {
		if done[i] {
			report.Results = append(report.Results, r)
		}
	}
	report.Summary = summarize(report.Results)

	log.WithField("files", len(report.Results)).Debugf("Batch finished with %d workers", workers)

	if err := ctx.Err(); err != nil {
		log.WithError(err).Warnf("Batch cancelled after %d of %d files", len(report.Results), len(paths))
		return report, err
	}
	return report, nil
}

func (b *Batch) analyzeFile(logger *utils.Logger, path string) FileResult {
	start := time.Now()
	fr := FileResult{Path: path, Name: filepath.Base(path)}
	log := logger.WithFile(path)

	data, err := b.reader.Read(path)
	if err != nil {
		log.WithError(err).Warn("Failed to read file")
		fr.Err = err
		fr.Duration = time.Since(start)
		return fr
	}
	defer func() {
		if err := data.Close(); err != nil {
			log.WithError(err).Debug("Failed to release file")
		}
	}()

	fr.Size = int64(len(data.Bytes))
	fr.ModTime = data.ModTime
	fr.Result = b.analyzer.Analyze(data.Bytes)
	fr.Duration = time.Since(start)
	if fr.Result.Malformed() {
		log.WithError(fr.Result.Err).Infof("Malformed %s, reporting basic metadata", fr.Result.Format)
	}
	return fr
}

// summarize calculates summary statistics from file results
func summarize(results []FileResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Errors++
		case r.Result.Malformed():
			s.Malformed++
		case r.Result.Format == format.Unknown:
			s.Unknown++
		default:
			s.Recognized++
		}
	}
	return s
}
