package strategy

import (
	"sort"
	"time"

	"GemSentinel/internal/model"
)

// RankHistory orders ids by momentum, highest first, at each of dates.
// Instruments without a momentum value on a date are left out of that
// date's ranking. Movement compares each rank with the closest earlier
// snapshot in dates that ranked anything. Dates unknown to mom produce an
// empty snapshot.
func RankHistory(mom *model.MomentumTable, ids []string, dates []time.Time) []model.RankSnapshot {
	out := make([]model.RankSnapshot, 0, len(dates))
	var prev map[string]int

	for _, date := range dates {
		snap := model.RankSnapshot{Date: date}
		i := mom.IndexOf(date)
		if i >= 0 {
			snap.Entries = rank(mom, i, ids)
		}
		for k := range snap.Entries {
			e := &snap.Entries[k]
			if p, ok := prev[e.Instrument]; ok {
				e.PrevRank = p
				switch {
				case e.Rank < p:
					e.Movement = model.MoveUp
				case e.Rank > p:
					e.Movement = model.MoveDown
				}
			}
		}
		if len(snap.Entries) > 0 {
			prev = make(map[string]int, len(snap.Entries))
			for _, e := range snap.Entries {
				prev[e.Instrument] = e.Rank
			}
		}
		out = append(out, snap)
	}
	return out
}

func rank(mom *model.MomentumTable, i int, ids []string) []model.RankEntry {
	seen := make(map[string]bool, len(ids))
	entries := make([]model.RankEntry, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if v, ok := mom.At(i, id); ok {
			entries = append(entries, model.RankEntry{Instrument: id, Value: v})
		}
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Value != entries[b].Value {
			return entries[a].Value > entries[b].Value
		}
		return entries[a].Instrument < entries[b].Instrument
	})
	for k := range entries {
		entries[k].Rank = k + 1
	}
	return entries
}
