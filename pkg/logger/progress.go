package logger

import (
	"sync"
	"time"
)

// ProgressTracker reports progress of multi-file operations at a bounded rate.
// It is used by the reconciliation service when extracting fields from many
// invoice documents in one run.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// NewProgressTracker creates a tracker for the named operation. A zero
// interval defaults to five seconds between progress lines.
func NewProgressTracker(log Logger, operation string, total int64, interval time.Duration) *ProgressTracker {
	if log == nil {
		log = GetGlobalLogger()
	}
	if interval == 0 {
		interval = 5 * time.Second
	}

	tracker := &ProgressTracker{
		logger:      log.WithComponent("progress"),
		operation:   operation,
		total:       total,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: interval,
	}

	tracker.logger.WithFields(Fields{
		"operation": operation,
		"total":     total,
	}).Info("Starting operation")

	return tracker
}

// Increment advances the counter by one and logs if the interval has elapsed.
func (p *ProgressTracker) Increment() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current++
	now := time.Now()
	if now.Sub(p.lastLogTime) < p.logInterval && p.current < p.total {
		return
	}
	p.lastLogTime = now

	fields := Fields{
		"operation": p.operation,
		"current":   p.current,
		"elapsed":   now.Sub(p.startTime).Round(time.Millisecond).String(),
	}
	if p.total > 0 {
		fields["total"] = p.total
		fields["percent"] = float64(p.current) * 100.0 / float64(p.total)
	}
	p.logger.WithFields(fields).Info("Operation progress")
}

// Complete logs the final counts and total duration of the operation.
func (p *ProgressTracker) Complete() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.logger.WithFields(Fields{
		"operation": p.operation,
		"processed": p.current,
		"duration":  time.Since(p.startTime).Round(time.Millisecond).String(),
	}).Info("Operation complete")
}
