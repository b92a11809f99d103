// Package logger provides structured logging for the Bidcoin backend.
package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"
)

// LogLevel represents the logging level
type LogLevel string

const (
	DEBUG LogLevel = "DEBUG"
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
	FATAL LogLevel = "FATAL"
)

// Fields represents structured logging fields
type Fields map[string]interface{}

// Logger provides structured logging capabilities
type Logger struct {
	level   LogLevel
	service string
}

type logEntry struct {
	Timestamp string
	Level     string
	Service   string
	RequestID string
	UserID    string
	Message   string
	Fields    Fields
	File      string
	Line      int
}

var globalLogger *Logger

func init() {
	globalLogger = NewLogger("bidcoin")
}

// NewLogger creates a new structured logger
func NewLogger(service string) *Logger {
	return &Logger{
		level:   INFO,
		service: service,
	}
}

// SetLevel sets the minimum logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

var levelRank = map[LogLevel]int{
	DEBUG: 0,
	INFO:  1,
	WARN:  2,
	ERROR: 3,
	FATAL: 4,
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return levelRank[level] >= levelRank[l.level]
}

// getCallerInfo gets file and line info of the caller
func getCallerInfo(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 2)
	if !ok {
		return "unknown", 0
	}
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		file = file[idx+1:]
	}
	return file, line
}

func (l *Logger) log(ctx context.Context, level LogLevel, message string, fields Fields) {
	if !l.shouldLog(level) {
		return
	}

	file, line := getCallerInfo(2)

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Service:   l.service,
		Message:   message,
		Fields:    fields,
		File:      file,
		Line:      line,
	}

	if ctx != nil {
		entry.RequestID = getRequestID(ctx)
		entry.UserID = getUserID(ctx)
	}

	log.Print(formatLogEntry(entry))

	if level == FATAL {
		os.Exit(1)
	}
}

func formatLogEntry(entry logEntry) string {
	parts := []string{
		fmt.Sprintf("[%s]", entry.Timestamp),
		fmt.Sprintf("%-5s", entry.Level),
	}

	if entry.Service != "" {
		parts = append(parts, fmt.Sprintf("service=%s", entry.Service))
	}
	if entry.RequestID != "" {
		parts = append(parts, fmt.Sprintf("req_id=%s", entry.RequestID))
	}
	if entry.UserID != "" {
		parts = append(parts, fmt.Sprintf("user_id=%s", entry.UserID))
	}

	parts = append(parts, fmt.Sprintf("file=%s:%d", entry.File, entry.Line))
	parts = append(parts, entry.Message)

	if len(entry.Fields) > 0 {
		var fieldPairs []string
		for k, v := range entry.Fields {
			fieldPairs = append(fieldPairs, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("fields=(%s)", strings.Join(fieldPairs, ", ")))
	}

	return strings.Join(parts, " ")
}

// Context key types for avoiding collisions
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func getUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID carried in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	return getRequestID(ctx)
}

// WithUserID adds user ID to context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Logging methods for the default logger
func Debug(ctx context.Context, message string, fields ...Fields) {
	globalLogger.Debug(ctx, message, fields...)
}

func Info(ctx context.Context, message string, fields ...Fields) {
	globalLogger.Info(ctx, message, fields...)
}

func Warn(ctx context.Context, message string, fields ...Fields) {
	globalLogger.Warn(ctx, message, fields...)
}

func Error(ctx context.Context, message string, fields ...Fields) {
	globalLogger.Error(ctx, message, fields...)
}

func Fatal(ctx context.Context, message string, fields ...Fields) {
	globalLogger.Fatal(ctx, message, fields...)
}

// Logging methods for Logger instance
func (l *Logger) Debug(ctx context.Context, message string, fields ...Fields) {
	l.log(ctx, DEBUG, message, mergeFields(fields...))
}

func (l *Logger) Info(ctx context.Context, message string, fields ...Fields) {
	l.log(ctx, INFO, message, mergeFields(fields...))
}

func (l *Logger) Warn(ctx context.Context, message string, fields ...Fields) {
	l.log(ctx, WARN, message, mergeFields(fields...))
}

func (l *Logger) Error(ctx context.Context, message string, fields ...Fields) {
	l.log(ctx, ERROR, message, mergeFields(fields...))
}

func (l *Logger) Fatal(ctx context.Context, message string, fields ...Fields) {
	l.log(ctx, FATAL, message, mergeFields(fields...))
}

func mergeFields(fieldMaps ...Fields) Fields {
	result := make(Fields)
	for _, fields := range fieldMaps {
		for k, v := range fields {
			result[k] = v
		}
	}
	return result
}

// LogError logs an error with optional fields
func LogError(ctx context.Context, err error, message string, fields ...Fields) {
	if err == nil {
		return
	}
	errorFields := Fields{"error": err.Error()}
	allFields := append([]Fields{errorFields}, fields...)
	Error(ctx, message, allFields...)
}

// SetGlobalLevel sets the global logger level
func SetGlobalLevel(level LogLevel) {
	globalLogger.SetLevel(level)
}
