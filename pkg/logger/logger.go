package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"engage/pkg/config"
)

// Version is stamped into every log line; the CLI overrides it at build time.
var Version = "dev"

// Logger is the field-oriented logging API components depend on.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	DebugWithFields(msg string, fields map[string]interface{})
	InfoWithFields(msg string, fields map[string]interface{})
	WarnWithFields(msg string, fields map[string]interface{})
	ErrorWithFields(msg string, fields map[string]interface{})
}

type zlogger struct {
	zl zerolog.Logger
}

var levelNames = map[string]zerolog.Level{
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"disabled": zerolog.Disabled,
}

func parseLogLevel(name string) (zerolog.Level, error) {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl, nil
	}
	return zerolog.InfoLevel, fmt.Errorf("unknown log level: %q", name)
}

// New builds a Logger from cfg. Lines go to a colored console on stderr and,
// when cfg.File is set, to that file as JSON as well.
func New(cfg *config.LoggingConfig) (Logger, error) {
	l, err := build(cfg)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func build(cfg *config.LoggingConfig) (*zlogger, error) {
	lvl, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = console(os.Stderr)
	if cfg.File != "" {
		f, err := appendFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("log file %s: %w", cfg.File, err)
		}
		out = zerolog.MultiLevelWriter(out, f)
	}
	return newZlogger(out, lvl), nil
}

// NewWithWriter returns a Logger writing JSON lines to w at lvl and above.
func NewWithWriter(w io.Writer, lvl zerolog.Level) Logger {
	return newZlogger(w, lvl)
}

func newZlogger(w io.Writer, lvl zerolog.Level) *zlogger {
	return &zlogger{zl: zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("app", "engage").
		Str("version", Version).
		Logger()}
}

var consoleLevels = map[string]string{
	"debug": "\033[37mDEBG\033[0m",
	"info":  "\033[32mINFO\033[0m",
	"warn":  "\033[33mWARN\033[0m",
	"error": "\033[31mERRO\033[0m",
	"fatal": "\033[35mFATL\033[0m",
}

func console(w io.Writer) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	cw.FormatLevel = func(v interface{}) string {
		s, _ := v.(string)
		if label, ok := consoleLevels[s]; ok {
			return label
		}
		return strings.ToUpper(s)
	}
	cw.FormatMessage = func(v interface{}) string {
		if v == nil {
			return ""
		}
		return "| " + fmt.Sprint(v)
	}
	cw.FormatFieldName = func(v interface{}) string {
		return "\033[36m" + fmt.Sprint(v) + "\033[0m:"
	}
	return cw
}

func appendFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func (l *zlogger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *zlogger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *zlogger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *zlogger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l *zlogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *zlogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *zlogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

func (l *zlogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.zl.Error().Fields(fields).Msg(msg)
}

func (l *zlogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *zlogger) WithFields(fields map[string]interface{}) Logger {
	return &zlogger{zl: l.zl.With().Fields(fields).Logger()}
}

// WithError attaches err as the "error" field. A nil error is a no-op.
func (l *zlogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return &zlogger{zl: l.zl.With().Str("error", err.Error()).Logger()}
}

var global Logger

// Initialize installs the logger built from cfg as the process logger. The
// zerolog package logger is pointed at it too.
func Initialize(cfg *config.LoggingConfig) error {
	l, err := build(cfg)
	if err != nil {
		return err
	}
	global = l
	log.Logger = l.zl
	return nil
}

// SetLogger replaces the process logger. nil restores the lazy default.
func SetLogger(l Logger) {
	global = l
}

// GetLogger returns the process logger, building an info level console
// logger on first use.
func GetLogger() Logger {
	if global == nil {
		global = newZlogger(console(os.Stderr), zerolog.InfoLevel)
	}
	return global
}
