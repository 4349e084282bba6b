package model

import "time"

// MomentumTable holds trailing returns aligned with the price dates.
// A symbol missing from Values[i] has no defined momentum at Dates[i].
type MomentumTable struct {
	Window int
	Dates  []time.Time
	Values []map[string]float64
}

// Len returns the number of dates.
func (m *MomentumTable) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Dates)
}

// At returns the momentum of symbol at row i.
func (m *MomentumTable) At(i int, symbol string) (float64, bool) {
	if i < 0 || i >= m.Len() {
		return 0, false
	}
	v, ok := m.Values[i][symbol]
	return v, ok
}

// IndexOf returns the row index of date, or -1.
func (m *MomentumTable) IndexOf(date time.Time) int {
	for i, d := range m.Dates {
		if d.Equal(date) {
			return i
		}
	}
	return -1
}

// Reason explains why a decision picked its instrument.
type Reason string

const (
	ReasonRiskyLeads  Reason = "RISKY_LEADS"
	ReasonSafeLeads   Reason = "SAFE_LEADS"
	ReasonNotPositive Reason = "ABSOLUTE_FILTER"
	ReasonNoData      Reason = "NO_DATA"
)

// Decision is the position chosen at month-end Date, to be held during
// the following month. It uses no price dated after Date.
type Decision struct {
	Date       time.Time `json:"date"`
	Decided    bool      `json:"decided"`
	Instrument string    `json:"instrument,omitempty"`
	BestRisky  string    `json:"best_risky,omitempty"`
	BestValue  float64   `json:"best_value"`
	SafeValue  float64   `json:"safe_value"`
	Reason     Reason    `json:"reason"`
}

// Signal is the decision sequence plus its lag-applied holdings.
// Held[i] is the instrument held during (Dates[i-1], Dates[i]], which is
// Decisions[i-1].Instrument; an empty string means undefined.
type Signal struct {
	Dates     []time.Time
	Decisions []Decision
	Held      []string
}

// Len returns the number of dates.
func (s *Signal) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Dates)
}

// Current returns the latest decision, i.e. the position for the month
// after the last date.
func (s *Signal) Current() (Decision, bool) {
	if s.Len() == 0 {
		return Decision{}, false
	}
	d := s.Decisions[len(s.Decisions)-1]
	return d, d.Decided
}

// FirstDecided returns the index of the first decided month, or -1.
func (s *Signal) FirstDecided() int {
	for i := 0; i < s.Len(); i++ {
		if s.Decisions[i].Decided {
			return i
		}
	}
	return -1
}

// Slice returns rows [from, to). Held[from] keeps the lag of the full
// sequence.
func (s *Signal) Slice(from, to int) *Signal {
	if from < 0 {
		from = 0
	}
	if to > s.Len() {
		to = s.Len()
	}
	if from > to {
		from = to
	}
	return &Signal{
		Dates:     s.Dates[from:to],
		Decisions: s.Decisions[from:to],
		Held:      s.Held[from:to],
	}
}

// Movement is a rank change versus the previous displayed date.
type Movement int

const (
	MoveNone Movement = iota
	MoveUp
	MoveDown
)

func (m Movement) String() string {
	switch m {
	case MoveUp:
		return "▲"
	case MoveDown:
		return "▼"
	default:
		return ""
	}
}

// MarshalText renders the arrow for JSON output.
func (m Movement) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// RankEntry is one instrument's place at a date. PrevRank is 0 when the
// instrument was not ranked on the previous displayed date.
type RankEntry struct {
	Rank       int      `json:"rank"`
	Instrument string   `json:"instrument"`
	Value      float64  `json:"value"`
	PrevRank   int      `json:"prev_rank,omitempty"`
	Movement   Movement `json:"movement"`
}

// RankSnapshot is the full descending order of instruments at Date.
type RankSnapshot struct {
	Date    time.Time   `json:"date"`
	Entries []RankEntry `json:"entries"`
}
