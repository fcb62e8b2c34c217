// Package stats accumulates per-username run results. A RunResult is the
// only state mutated concurrently by the download workers, so every
// mutation goes through one mutex; the hot transfer path never holds it.
package stats

import "sync"

// Outcome classifies one download candidate's fate.
type Outcome int

const (
	OutcomeDownloaded Outcome = iota
	OutcomeSkippedExisting
	OutcomeSkippedByTypeFilter
	OutcomeFailed
)

// FailureRecord is one (name, URL) pair for the failure ledger.
type FailureRecord struct {
	Name string
	URL  string
}

// RunResult collects outcome counts and failure records for one username.
// Created when the username's run starts, mutated only through the methods
// below, and read via Snapshot once traversal and all downloads finished.
type RunResult struct {
	Username string

	mu              sync.Mutex
	downloaded      int
	skippedExisting int
	skippedFilter   int
	failed          int
	failures        []FailureRecord
}

func NewRunResult(username string) *RunResult {
	return &RunResult{Username: username}
}

// Record counts a non-failure outcome.
func (r *RunResult) Record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch o {
	case OutcomeDownloaded:
		r.downloaded++
	case OutcomeSkippedExisting:
		r.skippedExisting++
	case OutcomeSkippedByTypeFilter:
		r.skippedFilter++
	case OutcomeFailed:
		r.failed++
	}
}

// RecordFailure counts a permanent failure and appends its ledger record.
func (r *RunResult) RecordFailure(name, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
	r.failures = append(r.failures, FailureRecord{Name: name, URL: url})
}

// Summary is the finalized, read-only view of a RunResult.
type Summary struct {
	Username        string
	Downloaded      int
	SkippedExisting int
	SkippedByFilter int
	Failed          int
	Failures        []FailureRecord
}

// Total is the number of catalog-derived candidates submitted this run.
func (s Summary) Total() int {
	return s.Downloaded + s.SkippedExisting + s.SkippedByFilter + s.Failed
}

// Snapshot returns a copy of the counters and failure ledger.
func (r *RunResult) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	failures := make([]FailureRecord, len(r.failures))
	copy(failures, r.failures)
	return Summary{
		Username:        r.Username,
		Downloaded:      r.downloaded,
		SkippedExisting: r.skippedExisting,
		SkippedByFilter: r.skippedFilter,
		Failed:          r.failed,
		Failures:        failures,
	}
}
