// Package faults implements the crawler's three-level error taxonomy:
// TransientFault, PageFault and EnvironmentFault. All three satisfy
// pkg/failure.ClassifiedError so callers branch on Severity() rather than
// on concrete type.
package faults

import (
	"fmt"
	"time"

	"github.com/igoriokas/web-crawler/pkg/failure"
)

// TransientFault is a temporary condition eligible for retry within a URL's
// attempt budget: network timeouts, connection resets, and HTTP 429/5xx.
type TransientFault struct {
	Message    string
	RetryAfter time.Duration // zero if the server gave no Retry-After hint
	StatusCode int           // zero if no HTTP response was received (timeout, connection error)
}

func (e *TransientFault) Error() string {
	return fmt.Sprintf("transient fault: %s", e.Message)
}

func (e *TransientFault) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// PageFault is permanent for the URL that produced it but does not end the
// crawl: non-retriable HTTP status, bad content-type, empty body, parse
// failure, or exhausted retries.
type PageFault struct {
	Message    string
	StatusCode int // zero when the fault did not originate from an HTTP response
}

func NewPageFault(format string, args ...any) *PageFault {
	return &PageFault{Message: fmt.Sprintf(format, args...)}
}

// NewPageFaultWithStatus is NewPageFault annotated with the HTTP status that
// produced it, for the Ledger's per-attempt history.
func NewPageFaultWithStatus(statusCode int, format string, args ...any) *PageFault {
	return &PageFault{Message: fmt.Sprintf(format, args...), StatusCode: statusCode}
}

func (e *PageFault) Error() string {
	return fmt.Sprintf("page fault: %s", e.Message)
}

func (e *PageFault) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// Short returns a diagnostic string truncated to fit the Ledger's error
// column (at most 100 characters, matching the source's logged diagnostics).
func (e *PageFault) Short() string {
	s := e.Message
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// EnvironmentFault is permanent for the run and ends the crawl: ledger
// write errors, disk-full on artifact writes, unrecoverable I/O.
type EnvironmentFault struct {
	Message string
}

func NewEnvironmentFault(format string, args ...any) *EnvironmentFault {
	return &EnvironmentFault{Message: fmt.Sprintf(format, args...)}
}

func (e *EnvironmentFault) Error() string {
	return fmt.Sprintf("environment fault: %s", e.Message)
}

func (e *EnvironmentFault) Severity() failure.Severity {
	return failure.SeverityFatal
}
