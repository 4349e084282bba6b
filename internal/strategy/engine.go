package strategy

import (
	"fmt"
	"sort"
	"time"

	"GemSentinel/internal/model"
)

// Rule selects how the best risky instrument is compared with the safe one.
type Rule string

const (
	// RuleDual holds the best risky instrument only when it beats the safe
	// instrument and its own momentum is positive.
	RuleDual Rule = "dual"
	// RuleRelative only compares the best risky instrument with the safe one.
	RuleRelative Rule = "relative"
)

// ParseRule maps a config value to a Rule. Empty means RuleDual.
func ParseRule(s string) (Rule, error) {
	switch Rule(s) {
	case "", RuleDual:
		return RuleDual, nil
	case RuleRelative:
		return RuleRelative, nil
	default:
		return "", fmt.Errorf("unknown signal rule %q", s)
	}
}

// Decide picks the instrument to hold after a month-end from that month's
// momentum values. Ties between risky instruments go to the
// lexicographically first identifier.
func Decide(values map[string]float64, set model.InstrumentSet, rule Rule) model.Decision {
	d := model.Decision{Reason: model.ReasonNoData}

	safeValue, ok := values[set.Safe]
	if set.Safe == "" || !ok {
		return d
	}

	risky := append([]string(nil), set.Risky...)
	sort.Strings(risky)

	found := false
	for _, id := range risky {
		if id == set.Safe {
			continue
		}
		v, ok := values[id]
		if !ok {
			continue
		}
		if !found || v > d.BestValue {
			d.BestRisky = id
			d.BestValue = v
			found = true
		}
	}
	if !found {
		return d
	}

	d.Decided = true
	d.SafeValue = safeValue
	switch {
	case d.BestValue <= safeValue:
		d.Instrument = set.Safe
		d.Reason = model.ReasonSafeLeads
	case rule != RuleRelative && d.BestValue <= 0:
		d.Instrument = set.Safe
		d.Reason = model.ReasonNotPositive
	default:
		d.Instrument = d.BestRisky
		d.Reason = model.ReasonRiskyLeads
	}
	return d
}

// ComputeSignal decides at every month-end and shifts the decisions one
// period forward, so Held[i] is what was decided at Dates[i-1].
func ComputeSignal(mom *model.MomentumTable, set model.InstrumentSet, rule Rule) *model.Signal {
	n := mom.Len()
	sig := &model.Signal{
		Dates:     make([]time.Time, n),
		Decisions: make([]model.Decision, n),
		Held:      make([]string, n),
	}
	for i := 0; i < n; i++ {
		d := Decide(mom.Values[i], set, rule)
		d.Date = mom.Dates[i]
		sig.Dates[i] = mom.Dates[i]
		sig.Decisions[i] = d
		if i > 0 && sig.Decisions[i-1].Decided {
			sig.Held[i] = sig.Decisions[i-1].Instrument
		}
	}
	return sig
}
