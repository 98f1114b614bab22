package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Logger provides topic-based debug logging with minimal overhead when disabled
type Logger struct {
	topic   string
	enabled atomic.Bool
}

var (
	mu            sync.Mutex
	enabledTopics = make(map[string]bool)
	loggers       = make(map[string]*Logger)
)

func init() {
	// DEBUG_TOPICS=engine,indicators,market or DEBUG_TOPICS=all
	Configure(os.Getenv("DEBUG_TOPICS"))
}

// Configure replaces the enabled topic set. Loggers created before the call are updated too,
// so package level loggers pick up topics read from a config file or .env.
func Configure(topics string) {
	mu.Lock()
	defer mu.Unlock()

	enabledTopics = parseTopics(topics)
	for topic, l := range loggers {
		l.enabled.Store(isEnabled(topic))
	}

	if len(enabledTopics) > 0 {
		configureSlog()
	}
}

func parseTopics(topics string) map[string]bool {
	parsed := make(map[string]bool)
	topics = strings.TrimSpace(topics)
	if topics == "" {
		return parsed
	}

	if topics == "all" {
		parsed["*"] = true
		return parsed
	}

	for _, topic := range strings.Split(topics, ",") {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			parsed[topic] = true
		}
	}
	return parsed
}

func isEnabled(topic string) bool {
	return enabledTopics["*"] || enabledTopics[topic]
}

// configureSlog sets slog's default logger to DEBUG level
func configureSlog() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}

// New returns the logger for a topic, creating it on first use.
// Usage: var engineLog = logging.New("engine")
func New(topic string) *Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[topic]; ok {
		return l
	}
	l := &Logger{topic: topic}
	l.enabled.Store(isEnabled(topic))
	loggers[topic] = l
	return l
}

// Debug logs a debug message if this topic is enabled
// Fast path: returns immediately if disabled (single atomic load)
func (l *Logger) Debug(msg string, args ...any) {
	if !l.enabled.Load() {
		return
	}
	slog.Debug(msg, l.withTopic(args)...)
}

// Info logs an info message if this topic is enabled
func (l *Logger) Info(msg string, args ...any) {
	if !l.enabled.Load() {
		return
	}
	slog.Info(msg, l.withTopic(args)...)
}

// Warn logs a warning message if this topic is enabled
func (l *Logger) Warn(msg string, args ...any) {
	if !l.enabled.Load() {
		return
	}
	slog.Warn(msg, l.withTopic(args)...)
}

func (l *Logger) withTopic(args []any) []any {
	return append([]any{"topic", l.topic}, args...)
}

// Enabled returns true if this logger is enabled
// Useful for expensive computations: if log.Enabled() { ... }
func (l *Logger) Enabled() bool {
	return l.enabled.Load()
}
