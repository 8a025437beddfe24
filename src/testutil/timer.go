// Package testutil holds timing helpers shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// Timer measures how long a test step took.
type Timer struct {
	start time.Time
	name  string
}

func NewTimer(name string) *Timer {
	return &Timer{start: time.Now(), name: name}
}

// Stop returns the elapsed time and logs it to t.
func (tm *Timer) Stop(t testing.TB) time.Duration {
	d := time.Since(tm.start)
	t.Logf("⏱️  %s took %v", tm.name, d)
	return d
}

// AssertUnder fails t when d exceeds limit.
func AssertUnder(t testing.TB, name string, d, limit time.Duration) {
	t.Helper()
	if d > limit {
		t.Errorf("❌ %s took %v, expected less than %v", name, d, limit)
		return
	}
	t.Logf("✅ %s finished in %v (limit %v)", name, d, limit)
}

// Result is one timed step.
type Result struct {
	Name     string
	Duration time.Duration
	Passed   bool
}

// SuiteResult collects timed steps and prints a summary at the end of a test.
type SuiteResult struct {
	mu      sync.Mutex
	name    string
	results []Result
}

func NewSuiteResult(name string) *SuiteResult {
	return &SuiteResult{name: name}
}

// Track runs fn as a subtest and records its duration and outcome.
func (s *SuiteResult) Track(t *testing.T, name string, fn func(t *testing.T)) bool {
	var d time.Duration
	ok := t.Run(name, func(t *testing.T) {
		tm := NewTimer(name)
		defer func() { d = tm.Stop(t) }()
		fn(t)
	})
	s.mu.Lock()
	s.results = append(s.results, Result{Name: name, Duration: d, Passed: ok})
	s.mu.Unlock()
	return ok
}

// Summary renders the collected results.
func (s *SuiteResult) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total time.Duration
	passed := 0
	var b strings.Builder
	for _, r := range s.results {
		total += r.Duration
		status := "✅"
		if r.Passed {
			passed++
		} else {
			status = "❌"
		}
		fmt.Fprintf(&b, "   %s %s: %v\n", status, r.Name, r.Duration)
	}
	head := fmt.Sprintf("📊 %s: %d/%d passed in %v\n", s.name, passed, len(s.results), total)
	return head + b.String()
}

// Log writes the summary to t.
func (s *SuiteResult) Log(t testing.TB) {
	t.Log("\n" + s.Summary())
}
