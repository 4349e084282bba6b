package strategy

import (
	"testing"
	"time"

	"GemSentinel/internal/model"
)

func momentumTable(rows ...map[string]float64) *model.MomentumTable {
	mom := &model.MomentumTable{Window: 12}
	start := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	for i, r := range rows {
		mom.Dates = append(mom.Dates, start.AddDate(0, i, 0))
		mom.Values = append(mom.Values, r)
	}
	return mom
}

func TestRankHistory_OrderAndMovement(t *testing.T) {
	mom := momentumTable(
		map[string]float64{"A": 0.10, "B": 0.05, "S": 0.01},
		map[string]float64{"A": 0.02, "B": 0.08, "S": 0.01},
		map[string]float64{"A": 0.03, "B": 0.07, "S": 0.01},
	)
	snaps := RankHistory(mom, []string{"A", "B", "S"}, mom.Dates)
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}

	first := snaps[0].Entries
	if first[0].Instrument != "A" || first[1].Instrument != "B" || first[2].Instrument != "S" {
		t.Errorf("unexpected first order: %+v", first)
	}
	for _, e := range first {
		if e.Movement != model.MoveNone || e.PrevRank != 0 {
			t.Errorf("expected no movement without prior data: %+v", e)
		}
	}

	second := map[string]model.RankEntry{}
	for _, e := range snaps[1].Entries {
		second[e.Instrument] = e
	}
	if second["B"].Rank != 1 || second["B"].Movement != model.MoveUp {
		t.Errorf("expected B up to 1, got %+v", second["B"])
	}
	if second["A"].Rank != 2 || second["A"].Movement != model.MoveDown {
		t.Errorf("expected A down to 2, got %+v", second["A"])
	}
	if second["S"].Movement != model.MoveNone {
		t.Errorf("expected S unchanged, got %+v", second["S"])
	}

	for _, e := range snaps[2].Entries {
		if e.Movement != model.MoveNone {
			t.Errorf("expected unchanged ranks in third month, got %+v", e)
		}
	}
}

func TestRankHistory_TiesAndAbsentInstruments(t *testing.T) {
	mom := momentumTable(
		map[string]float64{"B": 0.05},
		map[string]float64{"B": 0.05, "A": 0.05, "C": 0.09},
	)
	snaps := RankHistory(mom, []string{"C", "B", "A"}, mom.Dates)
	if len(snaps[0].Entries) != 1 {
		t.Fatalf("expected only B ranked first, got %+v", snaps[0].Entries)
	}
	got := snaps[1].Entries
	order := []string{"C", "A", "B"}
	for i, id := range order {
		if got[i].Instrument != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].Instrument)
		}
	}
	if got[0].Movement != model.MoveNone || got[1].Movement != model.MoveNone {
		t.Errorf("newly ranked instruments should carry no mark: %+v", got)
	}
	if got[2].Movement != model.MoveDown || got[2].PrevRank != 1 {
		t.Errorf("expected B down from 1, got %+v", got[2])
	}
}

func TestRankHistory_ShortSeriesExcluded(t *testing.T) {
	mom := momentumTable(
		map[string]float64{}, map[string]float64{}, map[string]float64{}, map[string]float64{},
	)
	for _, s := range RankHistory(mom, []string{"A"}, mom.Dates) {
		if len(s.Entries) != 0 {
			t.Errorf("expected no ranking at %s", s.Date)
		}
	}
}

func TestRankHistory_SkipsEmptySnapshotsForMovement(t *testing.T) {
	mom := momentumTable(
		map[string]float64{"A": 0.1, "B": 0.2},
		map[string]float64{},
		map[string]float64{"A": 0.3, "B": 0.2},
	)
	snaps := RankHistory(mom, []string{"A", "B"}, mom.Dates)
	if snaps[2].Entries[0].Instrument != "A" || snaps[2].Entries[0].Movement != model.MoveUp {
		t.Errorf("expected A up versus the last ranked date, got %+v", snaps[2].Entries[0])
	}
}

func TestRankHistory_UnknownDate(t *testing.T) {
	mom := momentumTable(map[string]float64{"A": 0.1})
	snaps := RankHistory(mom, []string{"A"}, []time.Time{time.Date(1999, 1, 31, 0, 0, 0, 0, time.UTC)})
	if len(snaps) != 1 || len(snaps[0].Entries) != 0 {
		t.Errorf("expected one empty snapshot, got %+v", snaps)
	}
}
