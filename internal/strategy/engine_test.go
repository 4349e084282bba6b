package strategy

import (
	"reflect"
	"testing"
	"time"

	"GemSentinel/internal/calculator"
	"GemSentinel/internal/model"
)

var gem = model.NewInstrumentSet([]string{"A", "B"}, "S")

func TestDecide_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]float64
		rule   Rule
		want   string
		reason model.Reason
	}{
		{"risky beats safe", map[string]float64{"A": 0.10, "B": 0.05, "S": 0.02}, RuleDual, "A", model.ReasonRiskyLeads},
		{"safe beats risky", map[string]float64{"A": -0.03, "B": -0.08, "S": 0.01}, RuleDual, "S", model.ReasonSafeLeads},
		{"negative leader filtered", map[string]float64{"A": -0.01, "B": -0.05, "S": -0.02}, RuleDual, "S", model.ReasonNotPositive},
		{"negative leader kept by relative rule", map[string]float64{"A": -0.01, "B": -0.05, "S": -0.02}, RuleRelative, "A", model.ReasonRiskyLeads},
		{"equal to safe holds safe", map[string]float64{"A": 0.04, "B": 0.01, "S": 0.04}, RuleDual, "S", model.ReasonSafeLeads},
		{"zero momentum filtered", map[string]float64{"A": 0, "B": -0.01, "S": -0.02}, RuleDual, "S", model.ReasonNotPositive},
		{"only one risky available", map[string]float64{"B": 0.07, "S": 0.01}, RuleDual, "B", model.ReasonRiskyLeads},
	}
	for _, tt := range tests {
		d := Decide(tt.values, gem, tt.rule)
		if !d.Decided {
			t.Errorf("%s: expected a decision", tt.name)
			continue
		}
		if d.Instrument != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, d.Instrument)
		}
		if d.Reason != tt.reason {
			t.Errorf("%s: expected reason %s, got %s", tt.name, tt.reason, d.Reason)
		}
	}
}

func TestDecide_TieBreakIsLexicographic(t *testing.T) {
	set := model.InstrumentSet{Risky: []string{"ZZZ", "MMM", "AAA"}, Safe: "S"}
	values := map[string]float64{"ZZZ": 0.2, "MMM": 0.2, "AAA": 0.2, "S": 0}
	for i := 0; i < 20; i++ {
		d := Decide(values, set, RuleDual)
		if d.Instrument != "AAA" {
			t.Fatalf("expected AAA on tie, got %s", d.Instrument)
		}
	}
}

func TestDecide_NoData(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]float64
	}{
		{"missing safe", map[string]float64{"A": 0.1, "B": 0.2}},
		{"missing all risky", map[string]float64{"S": 0.1}},
		{"empty", map[string]float64{}},
	}
	for _, tt := range tests {
		d := Decide(tt.values, gem, RuleDual)
		if d.Decided || d.Instrument != "" || d.Reason != model.ReasonNoData {
			t.Errorf("%s: expected no decision, got %+v", tt.name, d)
		}
	}
}

func TestDecide_SafeIsNeverAContestant(t *testing.T) {
	set := model.InstrumentSet{Risky: []string{"A", "S"}, Safe: "S"}
	d := Decide(map[string]float64{"A": 0.01, "S": 0.5}, set, RuleDual)
	if d.BestRisky != "A" {
		t.Errorf("expected best risky A, got %s", d.BestRisky)
	}
	if d.Instrument != "S" {
		t.Errorf("expected fallback to S, got %s", d.Instrument)
	}
}

func TestDecide_AbsoluteFilterHoldsSafeWhenAllRiskyNonPositive(t *testing.T) {
	for _, safe := range []float64{-0.5, -0.1, 0, 0.1} {
		for _, a := range []float64{-0.3, -0.01, 0} {
			d := Decide(map[string]float64{"A": a, "B": a - 0.01, "S": safe}, gem, RuleDual)
			if d.Instrument != "S" {
				t.Errorf("A=%v S=%v: expected S, got %s", a, safe, d.Instrument)
			}
		}
	}
}

func TestParseRule(t *testing.T) {
	if r, err := ParseRule(""); err != nil || r != RuleDual {
		t.Errorf("expected default dual, got %v %v", r, err)
	}
	if r, err := ParseRule("relative"); err != nil || r != RuleRelative {
		t.Errorf("expected relative, got %v %v", r, err)
	}
	if _, err := ParseRule("momentum"); err == nil {
		t.Error("expected error for unknown rule")
	}
}

func buildPrices(n int) *model.PriceSeries {
	ps := &model.PriceSeries{
		Symbols: []string{"A", "B", "S"},
		Closes:  map[string][]float64{},
	}
	for i := 0; i < n; i++ {
		ps.Dates = append(ps.Dates, calculator.MonthEnd(time.Date(2015, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC)))
		// A trends up then down, B oscillates, S creeps up.
		a := 100.0 + float64(i)*3
		if i > n/2 {
			a = 100.0 + float64(n-i)*3
		}
		b := 100.0 + float64((i*7)%11)*4
		s := 100.0 + float64(i)*0.2
		ps.Closes["A"] = append(ps.Closes["A"], a)
		ps.Closes["B"] = append(ps.Closes["B"], b)
		ps.Closes["S"] = append(ps.Closes["S"], s)
	}
	return ps
}

func signalFor(t *testing.T, ps *model.PriceSeries) *model.Signal {
	t.Helper()
	mom, err := calculator.ComputeMomentum(ps, 12)
	if err != nil {
		t.Fatal(err)
	}
	return ComputeSignal(mom, gem, RuleDual)
}

func TestComputeSignal_LagIsExactlyOnePeriod(t *testing.T) {
	sig := signalFor(t, buildPrices(40))
	if sig.Held[0] != "" {
		t.Errorf("expected nothing held on the first date, got %q", sig.Held[0])
	}
	for i := 1; i < sig.Len(); i++ {
		prev := sig.Decisions[i-1]
		want := ""
		if prev.Decided {
			want = prev.Instrument
		}
		if sig.Held[i] != want {
			t.Errorf("row %d: held %q, want decision of row %d %q", i, sig.Held[i], i-1, want)
		}
	}
	for i := 0; i < 12; i++ {
		if sig.Decisions[i].Decided {
			t.Errorf("row %d: decided before the window filled", i)
		}
	}
	for i := 0; i <= 12; i++ {
		if sig.Held[i] != "" {
			t.Errorf("row %d: expected undefined holding, got %q", i, sig.Held[i])
		}
	}
	if !sig.Decisions[12].Decided {
		t.Error("expected first decision at row 12")
	}
}

func TestComputeSignal_NoLookahead(t *testing.T) {
	ps := buildPrices(40)
	base := signalFor(t, ps)

	for cut := 12; cut < ps.Len()-1; cut++ {
		mutated := ps.Head(ps.Len())
		for _, s := range mutated.Symbols {
			for i := cut + 1; i < mutated.Len(); i++ {
				mutated.Closes[s][i] *= 1 + float64(i%5)*0.37
			}
		}
		sig := signalFor(t, mutated)
		if !reflect.DeepEqual(sig.Decisions[cut], base.Decisions[cut]) {
			t.Fatalf("decision at row %d changed after mutating later prices", cut)
		}
		if sig.Held[cut+1] != base.Held[cut+1] {
			t.Fatalf("holding for row %d changed after mutating later prices", cut+1)
		}
	}
}

func TestComputeSignal_Idempotent(t *testing.T) {
	ps := buildPrices(36)
	first := signalFor(t, ps)
	second := signalFor(t, ps)
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical signals for identical input")
	}
}

func TestComputeSignal_MissingSafeNeverDecides(t *testing.T) {
	ps := buildPrices(30)
	delete(ps.Closes, "S")
	ps.Symbols = []string{"A", "B"}
	sig := signalFor(t, ps)
	if sig.FirstDecided() != -1 {
		t.Errorf("expected no decisions without safe data, first at %d", sig.FirstDecided())
	}
	if _, ok := sig.Current(); ok {
		t.Error("expected no current decision")
	}
}
