package gui

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// GUIDebugger records interactions, redraw times and failures of the shell in
// debug builds. A nil *GUIDebugger is valid and records nothing.
type GUIDebugger struct {
	logger    *logrus.Logger
	startTime time.Time

	mu            sync.Mutex
	interactions  map[string]int
	renderTimes   []time.Duration
	runtimeErrors []string
}

func NewGUIDebugger(logger *logrus.Logger) *GUIDebugger {
	return &GUIDebugger{
		logger:       logger,
		startTime:    time.Now(),
		interactions: make(map[string]int),
	}
}

func (d *GUIDebugger) LogUIInteraction(component, action string, fields logrus.Fields) {
	if d == nil {
		return
	}

	d.mu.Lock()
	d.interactions[component+"."+action]++
	d.mu.Unlock()

	d.logger.WithFields(fields).WithFields(logrus.Fields{
		"component": component,
		"action":    action,
	}).Debug("GUI: Interaction")
}

func (d *GUIDebugger) LogRender(duration time.Duration, width, height int) {
	if d == nil {
		return
	}

	d.mu.Lock()
	d.renderTimes = append(d.renderTimes, duration)
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"duration_ms": duration.Milliseconds(),
		"size":        fmt.Sprintf("%dx%d", width, height),
	}).Debug("GUI: Canvas redrawn")
}

func (d *GUIDebugger) LogRuntimeError(component string, err error) {
	if d == nil {
		return
	}

	d.mu.Lock()
	d.runtimeErrors = append(d.runtimeErrors, fmt.Sprintf("[%s] %v", component, err))
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"component": component,
		"stack":     getStackTrace(),
	}).WithError(err).Error("GUI: Runtime error")
}

// Stats summarises what has been recorded so far.
func (d *GUIDebugger) Stats() map[string]interface{} {
	if d == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	interactions := make(map[string]int, len(d.interactions))
	for k, v := range d.interactions {
		interactions[k] = v
	}
	return map[string]interface{}{
		"runtime":         time.Since(d.startTime),
		"renders":         len(d.renderTimes),
		"avg_render_time": averageDuration(d.renderTimes),
		"runtime_errors":  len(d.runtimeErrors),
		"interactions":    interactions,
	}
}

// PrintStatus writes the summary to stdout on shutdown.
func (d *GUIDebugger) PrintStatus() {
	if d == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Println("\n=== GUI DEBUG STATUS ===")
	fmt.Printf("Runtime: %v\n", time.Since(d.startTime).Round(time.Millisecond))
	fmt.Printf("Renders: %d\n", len(d.renderTimes))
	if len(d.renderTimes) > 0 {
		fmt.Printf("Average Render Time: %v\n", averageDuration(d.renderTimes))
	}
	fmt.Printf("Runtime Errors: %d\n", len(d.runtimeErrors))
	for _, e := range d.runtimeErrors {
		fmt.Printf("  - %s\n", e)
	}
}

func getStackTrace() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
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
