package logger

import (
	"fmt"
	"time"
)

// LogStageStart logs the start of a collection stage
func LogStageStart(l Logger, stage string, fields map[string]interface{}) {
	l.WithField("stage", stage).InfoWithFields("Stage started", fields)
}

// LogStageComplete logs how a collection stage ended
func LogStageComplete(l Logger, stage, state string, ticks, count int, elapsed time.Duration) {
	l.WithFields(map[string]interface{}{
		"stage":    stage,
		"state":    state,
		"ticks":    ticks,
		"count":    count,
		"duration": elapsed,
	}).Info("Stage completed")
}

// LogTick logs one reveal tick at debug level
func LogTick(l Logger, stage string, tick, count, expected int) {
	fields := map[string]interface{}{
		"stage": stage,
		"tick":  tick,
		"count": count,
	}
	if expected > 0 {
		fields["expected"] = expected
		fields["progress"] = fmt.Sprintf("%.1f%%", float64(count)/float64(expected)*100)
	}
	l.DebugWithFields("Reveal tick", fields)
}

// LogDelivery logs the outcome of an export delivery attempt
func LogDelivery(l Logger, sink, target string, rows int, err error) {
	entry := l.WithFields(map[string]interface{}{
		"sink":   sink,
		"target": target,
		"rows":   rows,
	})
	if err != nil {
		entry.WithError(err).Warn("Delivery failed")
		return
	}
	entry.Info("Delivery completed")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string)                                   {}
func (nopLogger) Info(string)                                    {}
func (nopLogger) Warn(string)                                    {}
func (nopLogger) Error(string)                                   {}
func (nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (nopLogger) ErrorWithFields(string, map[string]interface{}) {}

func (n nopLogger) WithField(string, interface{}) Logger     { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger { return n }
func (n nopLogger) WithError(error) Logger                   { return n }
