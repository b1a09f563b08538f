// Composite-stage timing and debugging
package core

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StageRecord tracks one stage of one composite.
type StageRecord struct {
	Timestamp time.Time
	Stage     string
	Success   bool
	Skipped   bool
	Duration  time.Duration
	Error     string
}

// PipelineDebugger collects stage timings across composites.
type PipelineDebugger struct {
	mu     sync.Mutex
	logger *logrus.Logger

	records    []StageRecord
	stageTimes map[string][]time.Duration
	composites []time.Duration
	failures   int
}

func NewPipelineDebugger(logger *logrus.Logger) *PipelineDebugger {
	return &PipelineDebugger{
		logger:     logger,
		records:    make([]StageRecord, 0),
		stageTimes: make(map[string][]time.Duration),
		composites: make([]time.Duration, 0),
	}
}

// LogStage records a stage that ran (or was skipped when its parameters were
// at their defaults).
func (pd *PipelineDebugger) LogStage(stage string, skipped bool, duration time.Duration, err error) {
	if pd == nil {
		return
	}

	rec := StageRecord{
		Timestamp: time.Now(),
		Stage:     stage,
		Success:   err == nil,
		Skipped:   skipped,
		Duration:  duration,
	}
	if err != nil {
		rec.Error = err.Error()
	}

	pd.mu.Lock()
	pd.records = append(pd.records, rec)
	if !skipped && err == nil {
		pd.stageTimes[stage] = append(pd.stageTimes[stage], duration)
	}
	pd.mu.Unlock()

	entry := pd.logger.WithFields(logrus.Fields{
		"stage":       stage,
		"skipped":     skipped,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("PIPELINE: Stage failed")
		return
	}
	entry.Debug("PIPELINE: Stage finished")
}

// LogComposite records the end of a whole composite.
func (pd *PipelineDebugger) LogComposite(size string, duration time.Duration, err error) {
	if pd == nil {
		return
	}

	pd.mu.Lock()
	if err != nil {
		pd.failures++
	} else {
		pd.composites = append(pd.composites, duration)
	}
	pd.mu.Unlock()

	entry := pd.logger.WithFields(logrus.Fields{
		"size":        size,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("PIPELINE: Composite failed")
		return
	}
	entry.Debug("PIPELINE: Composite finished")
}

// Records returns a copy of every stage record, oldest first.
func (pd *PipelineDebugger) Records() []StageRecord {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	out := make([]StageRecord, len(pd.records))
	copy(out, pd.records)
	return out
}

func (pd *PipelineDebugger) GetStats() map[string]interface{} {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	stats := map[string]interface{}{
		"total_stages":     len(pd.records),
		"total_composites": len(pd.composites) + pd.failures,
		"failures":         pd.failures,
	}
	if len(pd.composites) > 0 {
		stats["avg_composite_time"] = averageDuration(pd.composites)
	}
	for stage, times := range pd.stageTimes {
		stats["avg_"+stage+"_time"] = averageDuration(times)
	}
	return stats
}

// WriteStatus prints a short report of the most recent stages.
func (pd *PipelineDebugger) WriteStatus(w io.Writer) {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	fmt.Fprintln(w, "=== PIPELINE STATUS ===")
	fmt.Fprintf(w, "Composites: %d (%d failed)\n", len(pd.composites)+pd.failures, pd.failures)
	if len(pd.composites) > 0 {
		fmt.Fprintf(w, "Average Composite Time: %v\n", averageDuration(pd.composites))
	}

	recent := min(len(pd.records), 12)
	if recent == 0 {
		return
	}
	fmt.Fprintln(w, "Recent Stages:")
	for _, rec := range pd.records[len(pd.records)-recent:] {
		status := "OK"
		switch {
		case !rec.Success:
			status = "FAILED"
		case rec.Skipped:
			status = "skipped"
		}
		fmt.Fprintf(w, "  [%s] %-10s %-7s %v\n", rec.Timestamp.Format("15:04:05.000"), rec.Stage, status, rec.Duration)
	}
}

func averageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return total / time.Duration(len(durations))
}
