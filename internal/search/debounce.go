// Package search debounces search input into settled queries.
package search

import (
	"strings"
	"time"

	"github.com/desertthunder/resonance/internal/models"
)

// Defaults for the search input.
const (
	DefaultDelay     = 500 * time.Millisecond
	DefaultMinLength = 4
)

// Query is a settled search.
type Query struct {
	Text   string
	Filter models.MediaType
}

// Debouncer tracks keystrokes and decides which ones settle into a query. The host schedules
// a timer for every sequence number from [Debouncer.Input] and calls [Debouncer.Settle] when
// it fires. It is not safe for concurrent use.
type Debouncer struct {
	delay     time.Duration
	minLength int

	seq     uint64
	text    string
	filter  models.MediaType
	last    Query
	settled bool
}

// NewDebouncer creates a debouncer. Non-positive values use the defaults.
func NewDebouncer(delay time.Duration, minLength int) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Debouncer{delay: delay, minLength: minLength}
}

// Delay is how long the host waits before settling.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// MinLength is the shortest query that is issued.
func (d *Debouncer) MinLength() int { return d.minLength }

// Input records the current text and returns its sequence number.
func (d *Debouncer) Input(text string) uint64 {
	d.seq++
	d.text = text
	return d.seq
}

// SetFilter changes the type filter and returns a sequence number like [Debouncer.Input].
func (d *Debouncer) SetFilter(filter models.MediaType) uint64 {
	d.seq++
	d.filter = filter
	return d.seq
}

// Settle returns the query for seq when no newer input arrived, the trimmed text is long
// enough, and it differs from the last settled query.
func (d *Debouncer) Settle(seq uint64) (Query, bool) {
	if seq != d.seq {
		return Query{}, false
	}

	q := Query{Text: strings.TrimSpace(d.text), Filter: d.filter}
	if len([]rune(q.Text)) < d.minLength {
		return Query{}, false
	}
	if d.settled && q == d.last {
		return Query{}, false
	}

	d.last = q
	d.settled = true
	return q, true
}

// Text is the latest input.
func (d *Debouncer) Text() string { return d.text }

// Filter is the current type filter.
func (d *Debouncer) Filter() models.MediaType { return d.filter }

// Reset forgets the last settled query so the same text can be issued again.
func (d *Debouncer) Reset() {
	d.settled = false
	d.last = Query{}
}
