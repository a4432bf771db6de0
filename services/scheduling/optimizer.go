package scheduling

import (
	"sort"
	"time"

	"bookline/models"
)

// Scoring weights. Density dominates; the remaining terms separate
// candidates of the same service, where density is constant.
const (
	adjacencyBonus   = 0.15 // relative bump for packing against an existing appointment
	balancedDensity  = 0.5  // density weight under balanced intent
	balancedLoadCost = 0.2  // per-appointment daily load penalty, in score units
	proximityHorizon = 24.0 // hours over which preference proximity decays to zero
)

// Optimizer turns free intervals into scored, deterministically ordered
// candidate starts. It is pure: same input, same output, no clock and
// no I/O.
type Optimizer struct{}

// OptimizeInput is one ranking problem.
type OptimizeInput struct {
	Intent  string
	Service models.Service
	// Window bounds the acceptable start times.
	Window models.Interval
	// Free is the owner's free space over the search range, ascending.
	Free []models.Interval
	// Busy is the buffered footprints of existing appointments, used
	// for the adjacency bonus.
	Busy []models.Interval
	// DayLoad returns the owner's active appointment count for the
	// local day containing t.
	DayLoad  func(t time.Time) int
	Location *time.Location
}

// Rank generates every candidate start honoring duration and buffer,
// scores each under the intent, and orders them by score descending,
// start ascending, then generation id ascending.
func (o Optimizer) Rank(in OptimizeInput) []models.Candidate {
	dur := in.Service.Duration()
	step := in.Service.Footprint()
	if step <= 0 {
		return nil
	}

	var candidates []models.Candidate
	id := 0
	for _, f := range in.Free {
		s := f.Start
		if in.Window.Start.After(s) {
			s = in.Window.Start
		}
		for !s.After(in.Window.End) && !s.Add(dur).After(f.End) {
			iv := models.NewInterval(s, dur)
			candidates = append(candidates, models.Candidate{
				ID:       id,
				Interval: iv,
				Score:    o.Score(in, iv),
			})
			id++
			s = s.Add(step)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Interval.Start.Equal(b.Interval.Start) {
			return a.Interval.Start.Before(b.Interval.Start)
		}
		return a.ID < b.ID
	})
	return candidates
}

// Score rates one placement of the service under the intent. It is
// exposed so gap-fill can compare an appointment's current spot against
// a proposed one with the same yardstick.
func (o Optimizer) Score(in OptimizeInput, iv models.Interval) float64 {
	switch in.Intent {
	case models.IntentFreeTime:
		return o.scoreFreeTime(in, iv)
	case models.IntentBalanced:
		return o.scoreBalanced(in, iv)
	default:
		return o.scoreMaxProfit(in, iv)
	}
}

// scoreMaxProfit is revenue density with a bonus for candidates that
// pack against an existing appointment instead of fragmenting the day.
func (o Optimizer) scoreMaxProfit(in OptimizeInput, iv models.Interval) float64 {
	density := o.density(in.Service)
	if o.adjacent(in, iv) {
		return density * (1 + adjacencyBonus)
	}
	return density
}

// scoreBalanced trades density against the day's existing load and
// rewards starts near the earliest acceptable time.
func (o Optimizer) scoreBalanced(in OptimizeInput, iv models.Interval) float64 {
	score := balancedDensity * o.density(in.Service)
	if in.DayLoad != nil {
		score -= balancedLoadCost * float64(in.DayLoad(iv.Start))
	}
	fromPref := iv.Start.Sub(in.Window.Start).Hours()
	if fromPref < 0 {
		fromPref = -fromPref
	}
	if fromPref < proximityHorizon {
		score += 1 - fromPref/proximityHorizon
	}
	return score
}

// scoreFreeTime is the size, in hours, of the largest contiguous free
// block that would remain after the placement.
func (o Optimizer) scoreFreeTime(in OptimizeInput, iv models.Interval) float64 {
	footprint := iv.Expand(in.Service.Buffer())
	largest := 0.0
	for _, f := range in.Free {
		for _, rest := range f.SubtractAll([]models.Interval{footprint}) {
			if h := rest.Duration().Hours(); h > largest {
				largest = h
			}
		}
	}
	return largest
}

// density is price per hour of consumed calendar space.
func (o Optimizer) density(svc models.Service) float64 {
	footprint := svc.Footprint().Hours()
	if footprint <= 0 {
		return 0
	}
	return float64(svc.PriceCents) / footprint
}

// adjacent reports whether the placement's buffered footprint touches
// an existing appointment's footprint, within a minute of slack.
func (o Optimizer) adjacent(in OptimizeInput, iv models.Interval) bool {
	footprint := iv.Expand(in.Service.Buffer())
	for _, b := range in.Busy {
		if footprint.Abuts(b, time.Minute) || footprint.Overlaps(b) {
			return true
		}
	}
	return false
}
