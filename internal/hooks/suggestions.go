package hooks

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/vietddude/storefront/internal/core/domain"
)

// DefaultDebounce is how long input must be stable before fetching.
const DefaultDebounce = 300 * time.Millisecond

// DefaultMinQueryLength is the shortest query worth fetching.
const DefaultMinQueryLength = 2

// Suggestions is search-as-you-type with debounce.
type Suggestions struct {
	*Resource[string, *domain.Suggestions]

	delay  time.Duration
	minLen int

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	closed bool
}

// NewSuggestions creates an idle suggestions hook. Non-positive values fall
// back to the defaults.
func NewSuggestions(src Source, delay time.Duration, minLen int) *Suggestions {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if minLen <= 0 {
		minLen = DefaultMinQueryLength
	}
	return &Suggestions{
		Resource: NewResource("suggestions", src.SearchSuggestions),
		delay:    delay,
		minLen:   minLen,
	}
}

// SetQuery records a new input value. Any pending timer is stopped and any
// in-flight fetch is cancelled; the fetch for value starts once it has been
// stable for the debounce interval. Subscribers may call back into the hook.
func (s *Suggestions) SetQuery(value string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	current := s.current(seq)
	s.Resource.cancelIf(current)

	query := strings.TrimSpace(value)
	if utf8.RuneCountInString(query) < s.minLen {
		s.Resource.set(query, domain.EmptySuggestions(), current)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.seq {
		return
	}
	s.timer = time.AfterFunc(s.delay, func() {
		s.fire(seq, query)
	})
}

func (s *Suggestions) fire(seq uint64, query string) {
	// The timer stays set until the fetch has started, so Pending and Wait
	// never both report idle in between.
	s.Resource.load(query, s.current(seq))

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.seq {
		s.timer = nil
	}
}

// current reports whether seq is still the latest input. It is evaluated
// under the resource lock, so s.mu must never be held while calling into
// the resource.
func (s *Suggestions) current(seq uint64) func() bool {
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.closed && seq == s.seq
	}
}

// Pending reports whether a debounce timer is waiting to fire.
func (s *Suggestions) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Close stops the timer and cancels in-flight work.
func (s *Suggestions) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.Resource.Close()
}
