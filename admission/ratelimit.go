// Package admission implements the synchronous gates in front of job
// creation: the sliding-window rate limiter and the content filter.
// Both complete fully before the scheduler is ever invoked.
package admission

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pixelfan/pixelfan/config"
	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/logger"
	"github.com/pixelfan/pixelfan/storage"
)

// ErrRateLimited is the sentinel for admission denied by a rate ceiling.
var ErrRateLimited = errors.New("rate limit exceeded")

const (
	globalWindowKey    = "rate-limits/global"
	callerWindowKeyFmt = "rate-limits/ip/%s"

	globalWindow = time.Hour
	callerWindow = 24 * time.Hour
)

// RateLimitError carries which window denied the request and how long the
// caller should wait for the oldest entry in that window to expire.
type RateLimitError struct {
	Window     string // "global" or "caller"
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s window, retry after %s", e.Window, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RetryAfterSeconds extracts the retry hint from a rate limit error.
// Returns 0 when err is not a rate limit denial.
func RetryAfterSeconds(err error) int {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		secs := int(rle.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		return secs
	}
	return 0
}

// window is the stored form of one sliding counter: the request instants
// still inside the retention window, oldest first.
type window struct {
	Timestamps []time.Time `json:"timestamps"`
}

// RateLimiter gates job creation against a global 1-hour ceiling and a
// per-caller 24-hour ceiling, with an allow-list bypass.
//
// Counters live in the blob store and are updated read-modify-write with
// no cross-request locking: two concurrent admissions can both read the
// same counter and both be admitted at the ceiling. That brief
// over-admission is an accepted tradeoff, not a correctness bug.
type RateLimiter struct {
	kv             storage.KV
	globalLimit    int
	perCallerLimit int
	allowlist      map[string]bool
	timeNow        func() time.Time
}

// NewRateLimiter builds a limiter from configuration.
func NewRateLimiter(kv storage.KV, cfg *config.RateLimitConfig) *RateLimiter {
	allowlist := make(map[string]bool, len(cfg.Allowlist))
	for _, caller := range cfg.Allowlist {
		allowlist[caller] = true
	}
	return &RateLimiter{
		kv:             kv,
		globalLimit:    cfg.GlobalHourlyLimit,
		perCallerLimit: cfg.PerCallerDailyLimit,
		allowlist:      allowlist,
		timeNow:        time.Now,
	}
}

// Admit decides whether a request from callerID may create a job.
// Returns nil to allow; a *RateLimitError (matching ErrRateLimited) to deny.
// Storage failures propagate as plain errors.
func (l *RateLimiter) Admit(callerID string) error {
	now := l.timeNow()
	callerKey := fmt.Sprintf(callerWindowKeyFmt, callerID)

	global, err := l.readWindow(globalWindowKey)
	if err != nil {
		return err
	}
	caller, err := l.readWindow(callerKey)
	if err != nil {
		return err
	}

	global.prune(now, globalWindow)
	caller.prune(now, callerWindow)

	// Allow-listed callers bypass both ceilings but are still recorded,
	// so their traffic remains visible in the counters.
	if !l.allowlist[callerID] {
		if len(global.Timestamps) >= l.globalLimit {
			return l.deny("global", global, now, globalWindow, callerID)
		}
		if len(caller.Timestamps) >= l.perCallerLimit {
			return l.deny("caller", caller, now, callerWindow, callerID)
		}
	}

	global.Timestamps = append(global.Timestamps, now)
	caller.Timestamps = append(caller.Timestamps, now)

	if err := l.writeWindow(globalWindowKey, global); err != nil {
		return err
	}
	return l.writeWindow(callerKey, caller)
}

func (l *RateLimiter) deny(which string, w *window, now time.Time, span time.Duration, callerID string) error {
	retryAfter := span
	if len(w.Timestamps) > 0 {
		retryAfter = w.Timestamps[0].Add(span).Sub(now)
	}
	logger.Infow("Admission denied by rate limit",
		logger.FieldCallerID, callerID,
		"window", which,
		logger.FieldCount, len(w.Timestamps),
		logger.FieldRetryAfter, retryAfter.Round(time.Second))
	return &RateLimitError{Window: which, RetryAfter: retryAfter}
}

func (l *RateLimiter) readWindow(key string) (*window, error) {
	data, err := l.kv.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return &window{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rate window %s", key)
	}

	var w window
	if err := json.Unmarshal(data, &w); err != nil {
		// A corrupt counter resets rather than wedging admission.
		logger.Warnw("Resetting unreadable rate window", logger.FieldKey, key, logger.FieldError, err)
		return &window{}, nil
	}
	return &w, nil
}

func (l *RateLimiter) writeWindow(key string, w *window) error {
	data, err := json.Marshal(w)
	if err != nil {
		return errors.Wrap(err, "failed to marshal rate window")
	}
	if err := l.kv.Put(key, data); err != nil {
		return errors.Wrapf(err, "failed to write rate window %s", key)
	}
	return nil
}

// prune drops timestamps older than the window. Entries are ordered oldest
// first, so pruning stops at the first survivor.
func (w *window) prune(now time.Time, span time.Duration) {
	cutoff := now.Add(-span)
	expired := 0
	for _, ts := range w.Timestamps {
		if !ts.After(cutoff) {
			expired++
		} else {
			break
		}
	}
	w.Timestamps = w.Timestamps[expired:]
}
