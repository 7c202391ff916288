package dataset

import (
	"slices"

	"chalresp/internal/domain"
)

// Tally aggregates records by attack label and verdict.
type Tally struct {
	Total         int
	Attacks       int
	Authenticated int
	// Undetected counts attacked records that authenticated.
	Undetected int
	ByLabel    map[domain.AttackKind]map[domain.Verdict]int
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{ByLabel: make(map[domain.AttackKind]map[domain.Verdict]int)}
}

// Add counts rec.
func (t *Tally) Add(rec domain.Record) {
	t.Total++
	if rec.Verdict == domain.VerdictAuthenticated {
		t.Authenticated++
	}
	if rec.AttackFlag {
		t.Attacks++
		if rec.Verdict == domain.VerdictAuthenticated {
			t.Undetected++
		}
	}
	byVerdict, ok := t.ByLabel[rec.AttackLabel]
	if !ok {
		byVerdict = make(map[domain.Verdict]int)
		t.ByLabel[rec.AttackLabel] = byVerdict
	}
	byVerdict[rec.Verdict]++
}

// Labels returns the labels seen, "none" first and the rest in canonical order.
func (t *Tally) Labels() []domain.AttackKind {
	var out []domain.AttackKind
	for _, k := range append([]domain.AttackKind{domain.AttackNone}, domain.AttackKinds...) {
		if _, ok := t.ByLabel[k]; ok {
			out = append(out, k)
		}
	}
	return slices.Clip(out)
}

// Count returns the number of records with label and verdict.
func (t *Tally) Count(label domain.AttackKind, verdict domain.Verdict) int {
	return t.ByLabel[label][verdict]
}
