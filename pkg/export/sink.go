package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"engage/pkg/logger"
)

// Sink delivers a batch somewhere and returns a description of where.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, b Batch) (string, error)
}

// DefaultFileName is used when no pattern is configured.
const DefaultFileName = "contacts_export.csv"

// TimestampLayout formats the {timestamp} placeholder of file patterns.
const TimestampLayout = "20060102-150405"

// FileName expands pattern for a run started at t. Supported placeholders
// are {timestamp} and {date}.
func FileName(pattern string, t time.Time) string {
	if pattern == "" {
		return DefaultFileName
	}
	name := strings.NewReplacer(
		"{timestamp}", t.UTC().Format(TimestampLayout),
		"{date}", t.UTC().Format("2006-01-02"),
	).Replace(pattern)
	if filepath.Ext(name) == "" {
		name += ".csv"
	}
	return name
}

// LocalSink writes the batch as a CSV file.
type LocalSink struct {
	dir     string
	pattern string
	logger  logger.Logger
}

// NewLocalSink returns a sink writing into dir, creating it if needed.
func NewLocalSink(dir, pattern string, log logger.Logger) (*LocalSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &LocalSink{dir: dir, pattern: pattern, logger: log}, nil
}

func (s *LocalSink) Name() string { return "local" }

// Dir returns the output directory.
func (s *LocalSink) Dir() string { return s.dir }

// Deliver writes the file atomically: rows go to a temporary file in the
// output directory which is then renamed into place.
func (s *LocalSink) Deliver(ctx context.Context, b Batch) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stamp := b.ScrapedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	path := filepath.Join(s.dir, FileName(s.pattern, stamp))

	tmp, err := os.CreateTemp(s.dir, ".engage-*.csv.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	writeErr := WriteCSV(tmp, b.Rows)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write rows: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	s.logger.DebugWithFields("CSV written", map[string]interface{}{
		"path": path,
		"rows": len(b.Rows),
	})
	return path, nil
}
