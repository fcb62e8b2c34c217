package api

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// LoggingTransport wraps an http.RoundTripper and records one line per
// request in a log file: method, URL (query stripped so the token never
// leaks), status, and duration.
type LoggingTransport struct {
	Transport http.RoundTripper

	mu      sync.Mutex
	logFile *os.File
	writer  *bufio.Writer
}

// NewLoggingTransport opens logFilePath for appending and returns the
// wrapping transport.
func NewLoggingTransport(transport http.RoundTripper, logFilePath string) (*LoggingTransport, error) {
	f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open API log file %s: %w", logFilePath, err)
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &LoggingTransport{
		Transport: transport,
		logFile:   f,
		writer:    bufio.NewWriter(f),
	}, nil
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Transport.RoundTrip(req)
	duration := time.Since(start)

	safeURL := *req.URL
	safeURL.RawQuery = ""

	t.mu.Lock()
	defer t.mu.Unlock()
	var line string
	if err != nil {
		line = fmt.Sprintf("%s %s %s error=%v duration=%s\n",
			start.Format(time.RFC3339), req.Method, safeURL.String(), err, duration)
	} else {
		line = fmt.Sprintf("%s %s %s status=%d duration=%s\n",
			start.Format(time.RFC3339), req.Method, safeURL.String(), resp.StatusCode, duration)
	}
	if _, werr := t.writer.WriteString(line); werr != nil {
		log.WithError(werr).Warn("Failed to write API log line")
	}
	t.writer.Flush()

	return resp, err
}

// Close flushes and closes the underlying log file.
func (t *LoggingTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.writer.Flush(); err != nil {
		t.logFile.Close()
		return fmt.Errorf("failed to flush API log buffer: %w", err)
	}
	return t.logFile.Close()
}
