package admission

import (
	"fmt"
	"strings"

	"github.com/pixelfan/pixelfan/errors"
)

// ErrContentBlocked is the sentinel for admission denied by the content filter.
var ErrContentBlocked = errors.New("prompt contains blocked content")

// BlockedError carries the term that matched. It is surfaced to operators
// and logs; callers see only the generic denial.
type BlockedError struct {
	Term string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("prompt contains blocked content: %q", e.Term)
}

func (e *BlockedError) Unwrap() error { return ErrContentBlocked }

// ContentFilter rejects prompts containing any configured blocked term.
// The check is a case-insensitive substring membership test with no I/O,
// so it sits on the synchronous admission path without a latency budget.
type ContentFilter struct {
	terms []string // lowercased once at construction
}

// NewContentFilter builds a filter from the configured block list.
// Empty terms are dropped.
func NewContentFilter(blockedTerms []string) *ContentFilter {
	terms := make([]string, 0, len(blockedTerms))
	for _, term := range blockedTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return &ContentFilter{terms: terms}
}

// Check returns nil for a clean prompt, or a *BlockedError (matching
// ErrContentBlocked) naming the first blocked term found.
func (f *ContentFilter) Check(prompt string) error {
	lowered := strings.ToLower(prompt)
	for _, term := range f.terms {
		if strings.Contains(lowered, term) {
			return &BlockedError{Term: term}
		}
	}
	return nil
}
