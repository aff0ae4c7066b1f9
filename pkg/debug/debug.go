// Package debug gates verbose logging by category so that one subsystem
// can be inspected without flooding the log with the others.
//
// Categories are chosen with ZOTGATE_DEBUG (or log.debug in the config
// file) as a comma-separated list: transport, engine, backend, auth,
// config, or all. The slog level comes from ZOTGATE_LOG_LEVEL (or
// log.level) and accepts ERROR, WARN, INFO, DEBUG, TRACE as well as the
// numeric verbosity 0-4 used by DEBUG_LEVEL.
//
//	debug.Log("backend", "forwarding", "path", path)
package debug

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// LevelTrace sits below slog.LevelDebug. Untruncated bodies are only
// logged at this level.
const LevelTrace = slog.LevelDebug - 4

// Environment variables read by Init. They win over the config values.
const (
	EnvCategories = "ZOTGATE_DEBUG"
	EnvLevel      = "ZOTGATE_LOG_LEVEL"
)

type categorySet map[string]bool

func (s categorySet) has(category string) bool {
	return s["all"] || s[category]
}

// enabled is swapped whole by Init and read by every request goroutine.
var enabled atomic.Pointer[categorySet]

// verbosity maps the numeric levels 0-4 to slog levels.
var verbosity = []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug, LevelTrace}

var levelNames = map[string]slog.Level{
	"TRACE":   LevelTrace,
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARN":    slog.LevelWarn,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
}

func init() {
	setCategories(os.Getenv(EnvCategories))
}

// Init installs a text slog handler on stderr as the default logger and
// selects the debug categories.
func Init(configCategories, configLevel string) {
	InitWriter(os.Stderr, configCategories, configLevel)
}

// InitWriter is Init with the log output sent to w.
func InitWriter(w io.Writer, configCategories, configLevel string) {
	setCategories(envOr(EnvCategories, configCategories))
	level := ParseLevel(envOr(EnvLevel, configLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// Enabled reports whether category is selected.
func Enabled(category string) bool {
	return (*enabled.Load()).has(category)
}

// Log writes a DEBUG record tagged with category when it is enabled.
func Log(category, msg string, args ...any) {
	emit(slog.LevelDebug, category, msg, args)
}

// Trace writes a TRACE record tagged with category when it is enabled.
func Trace(category, msg string, args ...any) {
	emit(LevelTrace, category, msg, args)
}

func emit(level slog.Level, category, msg string, args []any) {
	if !Enabled(category) {
		return
	}
	slog.Default().Log(context.Background(), level, msg, append([]any{"debug", category}, args...)...)
}

// Categories returns the selected categories in sorted order.
func Categories() []string {
	return slices.Sorted(maps.Keys(*enabled.Load()))
}

// ParseLevel converts a level name or numeric verbosity into a slog level.
// Numbers below 0 clamp to ERROR and above 4 to TRACE. Anything
// unrecognized is INFO.
func ParseLevel(s string) slog.Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		return verbosity[max(0, min(n, len(verbosity)-1))]
	}
	if level, ok := levelNames[s]; ok {
		return level
	}
	return slog.LevelInfo
}

// Truncate shortens s to at most maxLen bytes without splitting a UTF-8
// sequence and marks the cut with "...".
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func setCategories(s string) {
	set := parseCategories(s)
	enabled.Store(&set)
}

func parseCategories(s string) categorySet {
	set := categorySet{}
	for _, name := range strings.Split(s, ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			set[name] = true
		}
	}
	return set
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
