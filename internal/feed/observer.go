package feed

import "sort"

// Region is the vertical extent of one rendered slot, in rows.
type Region struct {
	Index  int
	Top    int
	Height int
}

// Viewport is the visible window of the scroll container, in rows.
type Viewport struct {
	Top    int
	Height int
}

// EventKind tells whether a region crossed into or out of visibility.
type EventKind int

const (
	Activated EventKind = iota
	Deactivated
)

// Event reports a region crossing the visibility threshold.
type Event struct {
	Index int
	Kind  EventKind
	Ratio float64
}

// Observer turns viewport positions into activation and deactivation events.
//
// A region is visible while at least threshold of its height is inside the viewport. Events
// are only produced on crossings, in region order, deactivations of vanished regions last.
type Observer struct {
	threshold float64
	visible   map[int]bool
}

// NewObserver creates an observer. A threshold outside (0, 1] falls back to 0.6.
func NewObserver(threshold float64) *Observer {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.6
	}
	return &Observer{threshold: threshold, visible: make(map[int]bool)}
}

// Observe compares the regions against vp and returns the crossings since the last call.
func (o *Observer) Observe(regions []Region, vp Viewport) []Event {
	var events []Event
	present := make(map[int]bool, len(regions))

	for _, r := range regions {
		present[r.Index] = true
		ratio := visibleRatio(r, vp)
		was := o.visible[r.Index]
		is := ratio >= o.threshold

		switch {
		case is && !was:
			o.visible[r.Index] = true
			events = append(events, Event{Index: r.Index, Kind: Activated, Ratio: ratio})
		case !is && was:
			delete(o.visible, r.Index)
			events = append(events, Event{Index: r.Index, Kind: Deactivated, Ratio: ratio})
		}
	}

	var gone []int
	for idx := range o.visible {
		if !present[idx] {
			gone = append(gone, idx)
		}
	}
	sort.Ints(gone)
	for _, idx := range gone {
		delete(o.visible, idx)
		events = append(events, Event{Index: idx, Kind: Deactivated})
	}
	return events
}

// Reset forgets every visible region without emitting events.
func (o *Observer) Reset() {
	o.visible = make(map[int]bool)
}

// Visible reports whether the region at index is currently past the threshold.
func (o *Observer) Visible(index int) bool { return o.visible[index] }

// LastActivated returns the index of the last activation in events. Later events win.
func LastActivated(events []Event) (int, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == Activated {
			return events[i].Index, true
		}
	}
	return 0, false
}

// Stack lays out count slots of equal height from row 0.
func Stack(count, height int) []Region {
	regions := make([]Region, count)
	for i := range regions {
		regions[i] = Region{Index: i, Top: i * height, Height: height}
	}
	return regions
}

func visibleRatio(r Region, vp Viewport) float64 {
	if r.Height <= 0 {
		return 0
	}
	top := max(r.Top, vp.Top)
	bottom := min(r.Top+r.Height, vp.Top+vp.Height)
	if bottom <= top {
		return 0
	}
	return float64(bottom-top) / float64(r.Height)
}
