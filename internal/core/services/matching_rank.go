package services

import (
	"math"
	"sort"
	"strings"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// Confidence weights. A reference hit dominates; date proximity only separates equal references.
const (
	baseConfidence      = 0.5
	referenceConfidence = 0.4
	proximityConfidence = 0.1
	manualConfidence    = 1.0
)

// referenceMatches reports whether the line description contains the movement's source reference.
func referenceMatches(line domain.StatementLine, m domain.LedgerMovement) bool {
	ref := strings.TrimSpace(m.SourceRef)
	if ref == "" {
		return false
	}
	return strings.Contains(strings.ToLower(line.Description), strings.ToLower(ref))
}

func candidateConfidence(reference bool, distance, windowDays int) float64 {
	c := baseConfidence
	if reference {
		c += referenceConfidence
	}
	if windowDays <= 0 {
		c += proximityConfidence
	} else {
		c += proximityConfidence * float64(windowDays-distance) / float64(windowDays)
	}
	return math.Round(c*10000) / 10000
}

// buildCandidates keeps movements with exactly the line amount inside the date window and
// ranks them by reference containment, then day distance, then movement id.
func buildCandidates(line domain.StatementLine, movements []domain.LedgerMovement, windowDays int) []domain.MatchCandidate {
	var candidates []domain.MatchCandidate
	for _, m := range movements {
		if !m.Amount.Equal(line.Amount) {
			continue
		}
		distance := domain.DaysBetween(line.ValueDate, m.MovementDate)
		if distance > windowDays {
			continue
		}
		ref := referenceMatches(line, m)
		candidates = append(candidates, domain.MatchCandidate{
			Movement:       m,
			ReferenceMatch: ref,
			DayDistance:    distance,
			Confidence:     candidateConfidence(ref, distance, windowDays),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.ReferenceMatch != b.ReferenceMatch {
			return a.ReferenceMatch
		}
		if a.DayDistance != b.DayDistance {
			return a.DayDistance < b.DayDistance
		}
		return a.Movement.MovementID < b.Movement.MovementID
	})
	return candidates
}

// selectAutoMatch applies the auto-match policy to ranked candidates. It picks the only
// candidate, or the only one whose reference is contained in the description. Otherwise
// it returns the suspense reason.
func selectAutoMatch(candidates []domain.MatchCandidate) (*domain.MatchCandidate, domain.SuspenseReason) {
	switch len(candidates) {
	case 0:
		return nil, domain.ReasonNoCandidate
	case 1:
		return &candidates[0], ""
	}
	var dominant *domain.MatchCandidate
	for i := range candidates {
		if !candidates[i].ReferenceMatch {
			continue
		}
		if dominant != nil {
			return nil, domain.ReasonAmbiguousCandidate
		}
		dominant = &candidates[i]
	}
	if dominant == nil {
		return nil, domain.ReasonAmbiguousCandidate
	}
	return dominant, ""
}
