package scheduling

import (
	"time"

	"bookline/config"
	"bookline/models"
)

// PriorityPolicy assigns a waitlist entry its rank. Higher is served
// first; ties fall back to creation order.
type PriorityPolicy interface {
	Score(now time.Time, entry models.WaitlistEntry, client *models.Client) float64
}

// WeightedPriority ranks by weighted creation age, desired-window
// specificity, and client tier. Earlier entries and narrower windows
// rank higher.
type WeightedPriority struct {
	AgeWeight         float64
	SpecificityWeight float64
	TierWeight        float64
}

// NewWeightedPriority builds the policy from the configured weights.
func NewWeightedPriority() WeightedPriority {
	return WeightedPriority{
		AgeWeight:         config.AppConfig.PriorityAgeWeight,
		SpecificityWeight: config.AppConfig.PrioritySpecificityWeight,
		TierWeight:        config.AppConfig.PriorityTierWeight,
	}
}

// Score computes the entry's priority at now.
func (p WeightedPriority) Score(now time.Time, entry models.WaitlistEntry, client *models.Client) float64 {
	ageDays := now.Sub(entry.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	score := p.AgeWeight * ageDays

	// Specificity: a one-day window scores 1, wider windows decay.
	if width := entry.Window.Duration().Hours(); width > 0 {
		score += p.SpecificityWeight * (24 / width)
	}

	if client != nil {
		score += p.TierWeight * float64(client.Tier)
	}
	return score
}
