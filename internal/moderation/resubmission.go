// Package moderation holds the pure rules of the profile review workflow:
// resubmission eligibility, change detection and pending-reason text.
package moderation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
)

// Policy bounds owner resubmissions after a rejection.
type Policy struct {
	MaxAttempts int
	Cooldown    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Cooldown: 24 * time.Hour}
}

// Eligibility is the resubmission block shown on the owner dashboard.
type Eligibility struct {
	Eligible          bool       `json:"eligible"`
	AttemptsUsed      int        `json:"attempts_used"`
	AttemptsRemaining int        `json:"attempts_remaining"`
	NextEligibleAt    *time.Time `json:"next_eligible_at,omitempty"`
	Blocker           string     `json:"blocker,omitempty"`
}

// CanResubmit reports whether another attempt is allowed under the cap.
func (p Policy) CanResubmit(l *models.Lobbyist) bool {
	return l.ResubmissionCount < p.MaxAttempts
}

// CooldownElapsed reports whether the cooldown since the last resubmission
// has passed. A profile that was never resubmitted has no cooldown.
func (p Policy) CooldownElapsed(l *models.Lobbyist, now time.Time) bool {
	if l.LastResubmissionAt == nil {
		return true
	}
	return !now.Before(l.LastResubmissionAt.Add(p.Cooldown))
}

// stateGate checks the rejected state, attempt cap and cooldown in that order.
func (p Policy) stateGate(l *models.Lobbyist, now time.Time) error {
	switch {
	case !l.IsRejected:
		return models.ErrNotRejected
	case !p.CanResubmit(l):
		return models.ErrResubmissionLimit
	case !p.CooldownElapsed(l, now):
		return models.ErrResubmissionCooldown
	}
	return nil
}

// Check runs every resubmission gate. Ownership is checked first, then the
// no-changes rule, so an identical payload is refused as such whatever the
// profile's state. It returns the 1-based number of the attempt being made.
func (p Policy) Check(l *models.Lobbyist, userID string, incoming models.ProfileContent, now time.Time) (int, error) {
	if !l.IsOwnedBy(userID) {
		return 0, models.ErrForbidden
	}
	if !HasChanges(l.Content(), incoming) {
		return 0, models.ErrNoChanges
	}
	if err := p.stateGate(l, now); err != nil {
		return 0, err
	}
	return l.ResubmissionCount + 1, nil
}

// Evaluate summarises eligibility without a candidate payload.
func (p Policy) Evaluate(l *models.Lobbyist, now time.Time) Eligibility {
	e := Eligibility{
		AttemptsUsed:      l.ResubmissionCount,
		AttemptsRemaining: max(p.MaxAttempts-l.ResubmissionCount, 0),
	}

	if l.LastResubmissionAt != nil && !p.CooldownElapsed(l, now) {
		next := l.LastResubmissionAt.Add(p.Cooldown)
		e.NextEligibleAt = &next
	}

	if err := p.stateGate(l, now); err != nil {
		e.Blocker = ErrorCode(err)
		return e
	}
	e.Eligible = true
	return e
}

// PendingReason is the human-readable reason stored on a resubmitted profile.
func (p Policy) PendingReason(attempt int) string {
	return fmt.Sprintf("Resubmitted after rejection (attempt %d of %d)", attempt, p.MaxAttempts)
}

// ErrorCode maps a gate error to its stable API code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, models.ErrNoChanges):
		return "no_changes"
	case errors.Is(err, models.ErrNotRejected):
		return "not_rejected"
	case errors.Is(err, models.ErrResubmissionLimit):
		return "resubmission_limit_reached"
	case errors.Is(err, models.ErrResubmissionCooldown):
		return "resubmission_cooldown"
	case errors.Is(err, models.ErrForbidden):
		return "forbidden"
	}
	return ""
}

// HasChanges compares scalar fields byte for byte and the city and subject
// lists as sets.
func HasChanges(stored, incoming models.ProfileContent) bool {
	scalars := [][2]string{
		{stored.FirstName, incoming.FirstName},
		{stored.LastName, incoming.LastName},
		{stored.Email, incoming.Email},
		{stored.Phone, incoming.Phone},
		{stored.Website, incoming.Website},
		{stored.LinkedInURL, incoming.LinkedInURL},
		{stored.Bio, incoming.Bio},
	}
	for _, pair := range scalars {
		if pair[0] != pair[1] {
			return true
		}
	}

	return !sameSet(stored.Cities, incoming.Cities) || !sameSet(stored.SubjectAreas, incoming.SubjectAreas)
}

func sameSet(a, b []string) bool {
	return slices.Equal(normalizeSet(a), normalizeSet(b))
}

func normalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
