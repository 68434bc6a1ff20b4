package core

// KeyCount is one bar or slice of a chart: a group key and its row count.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// DueWindow classifies a date relative to a reference day.
type DueWindow string

const (
	Expired  DueWindow = "Expired"
	Urgent   DueWindow = "Urgent"
	Incoming DueWindow = "Incoming"
)

// DueSummary counts rows per due window.
type DueSummary struct {
	Expired  int `json:"expired"`
	Urgent   int `json:"urgent"`
	Incoming int `json:"incoming"`
}

// Add counts one row in window w.
func (s *DueSummary) Add(w DueWindow) {
	switch w {
	case Expired:
		s.Expired++
	case Urgent:
		s.Urgent++
	case Incoming:
		s.Incoming++
	}
}

// Count returns the count for window w.
func (s DueSummary) Count(w DueWindow) int {
	switch w {
	case Expired:
		return s.Expired
	case Urgent:
		return s.Urgent
	case Incoming:
		return s.Incoming
	}
	return 0
}

// Series returns the chart series in display order (Urgent, Incoming,
// Expired), zero counts included.
func (s DueSummary) Series() []KeyCount {
	return []KeyCount{
		{Key: string(Urgent), Count: s.Urgent},
		{Key: string(Incoming), Count: s.Incoming},
		{Key: string(Expired), Count: s.Expired},
	}
}

// StackCount is one segment of a stacked bar: rows on Date sharing Key.
type StackCount struct {
	Date  string `json:"date"`
	Key   string `json:"key"`
	Count int    `json:"count"`
}
