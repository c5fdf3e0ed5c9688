package fsrs

import (
	"fmt"
	"math"

	"github.com/example/legendas/pkg/models"
)

// DefaultParameters are the FSRS v6 default weights.
var DefaultParameters = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w[0..3]  initial stability per rating
	6.4133, 0.8334, 3.0194, 0.001, // w[4..7]  difficulty
	1.8722, 0.1666, 0.796, 1.4835, // w[8..11] recall stability
	0.0614, 0.2629, 1.6483, 0.6014, // w[12..15] forget stability
	1.8729, 0.5425, 0.0912, 0.0658, // w[16..19] easy bonus / short-term
	0.1542, // w[20] decay exponent
}

// lowerBounds and upperBounds delimit the valid range for each weight.
var lowerBounds = [21]float64{
	0.001, 0.001, 0.001, 0.001,
	1.0, 0.001, 0.001, 0.001,
	0.0, 0.0, 0.001, 0.001,
	0.001, 0.001, 0.0, 0.0,
	1.0, 0.0, 0.0, 0.0,
	0.1,
}

var upperBounds = [21]float64{
	100.0, 100.0, 100.0, 100.0,
	10.0, 4.0, 4.0, 0.75,
	4.5, 0.8, 3.5, 5.0,
	0.25, 0.9, 4.0, 1.0,
	6.0, 2.0, 2.0, 0.8,
	0.8,
}

func validateParameters(p [21]float64) error {
	for i := range p {
		if p[i] < lowerBounds[i] || p[i] > upperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidParameters, i, p[i], lowerBounds[i], upperBounds[i])
		}
	}
	return nil
}

// retrievability computes R(t, S) = (1 + factor * t / S) ^ decay.
func (s *Scheduler) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+s.factor*elapsedDays/stability, s.decay)
}

// initStability returns S₀(G) for the first rating of a card.
func (s *Scheduler) initStability(r models.Rating) float64 {
	return clampStability(s.w[r-1])
}

// initDifficulty returns D₀(G) = w[4] - e^(w[5]*(G-1)) + 1, clamped to [1, 10].
func (s *Scheduler) initDifficulty(r models.Rating) float64 {
	return clampDifficulty(s.rawInitDifficulty(r))
}

func (s *Scheduler) rawInitDifficulty(r models.Rating) float64 {
	return s.w[4] - math.Exp(s.w[5]*float64(r-1)) + 1
}

// nextIntervalDays computes the next review interval in whole days,
// clamped to [1, maximumInterval].
func (s *Scheduler) nextIntervalDays(stability float64) int {
	ivl := stability / s.factor * (math.Pow(s.desiredRetention, 1.0/s.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > s.maximumInterval {
		days = s.maximumInterval
	}
	return days
}

// shortTermStability updates stability for a same-day review.
func (s *Scheduler) shortTermStability(stability float64, r models.Rating) float64 {
	inc := math.Exp(s.w[17]*(float64(r)-3+s.w[18])) * math.Pow(stability, -s.w[19])
	if r == models.RatingGood || r == models.RatingEasy {
		inc = math.Max(inc, 1.0)
	}
	return clampStability(stability * inc)
}

// nextDifficulty applies linear damping and mean reversion toward D₀(Easy).
func (s *Scheduler) nextDifficulty(difficulty float64, r models.Rating) float64 {
	deltaD := -s.w[6] * (float64(r) - 3)
	dPrime := difficulty + (10-difficulty)*deltaD/9
	reverted := s.w[7]*s.rawInitDifficulty(models.RatingEasy) + (1-s.w[7])*dPrime
	return clampDifficulty(reverted)
}

// nextStability dispatches on whether the card was recalled or forgotten.
func (s *Scheduler) nextStability(difficulty, stability, retr float64, r models.Rating) float64 {
	if r == models.RatingAgain {
		return s.forgetStability(difficulty, stability, retr)
	}
	return s.recallStability(difficulty, stability, retr, r)
}

// recallStability grows stability after Hard/Good/Easy.
func (s *Scheduler) recallStability(d, st, retr float64, r models.Rating) float64 {
	hardPenalty := 1.0
	if r == models.RatingHard {
		hardPenalty = s.w[15]
	}
	easyBonus := 1.0
	if r == models.RatingEasy {
		easyBonus = s.w[16]
	}
	return st * (1 + math.Exp(s.w[8])*
		(11-d)*
		math.Pow(st, -s.w[9])*
		(math.Exp((1-retr)*s.w[10])-1)*
		hardPenalty*easyBonus)
}

// forgetStability shrinks stability after Again.
func (s *Scheduler) forgetStability(d, st, retr float64) float64 {
	long := s.w[11] *
		math.Pow(d, -s.w[12]) *
		(math.Pow(st+1, s.w[13]) - 1) *
		math.Exp((1-retr)*s.w[14])
	short := st / math.Exp(s.w[17]*s.w[18])
	return math.Min(long, short)
}

func clampStability(st float64) float64 {
	return math.Max(st, 0.001)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
