package exam

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"pmp_prep_backend/internal/model"
)

// AllocationError is returned when the catalog cannot satisfy a domain's
// computed question count. Session creation must fail fast on it; the exam is
// never silently truncated.
type AllocationError struct {
	DomainName string
	Requested  int
	Available  int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("domain %q has %d questions, %d required", e.DomainName, e.Available, e.Requested)
}

// AllocatedQuestion is one selected question with its final on-screen position.
type AllocatedQuestion struct {
	Question      model.Question
	QuestionIndex int
}

// Allocator assembles a full exam: per-domain counts from weights, a
// difficulty-stratified draw per domain, then one global shuffle. All
// randomness flows through the injected source so tests can pin a seed.
type Allocator struct {
	plan Plan
	rng  *rand.Rand
}

func NewAllocator(plan Plan, rng *rand.Rand) *Allocator {
	return &Allocator{plan: plan, rng: rng}
}

// DomainCounts floors total*weight per domain and gives the whole remainder to
// the domain with the largest weight. For 185 questions and the standard PMP
// weights this yields People 61, Process 76, Business Environment 48.
func DomainCounts(total int, weights map[uint]float64) map[uint]int {
	counts := make(map[uint]int, len(weights))
	assigned := 0

	var largestID uint
	largestWeight := -1.0
	for _, id := range sortedDomainIDs(weights) {
		w := weights[id]
		n := int(math.Floor(float64(total) * w))
		counts[id] = n
		assigned += n
		if w > largestWeight {
			largestWeight = w
			largestID = id
		}
	}

	if remainder := total - assigned; remainder > 0 && len(weights) > 0 {
		counts[largestID] += remainder
	}
	return counts
}

// AdjustWeights shifts configured domain weights toward a user's weak domains:
// accuracy below 60% gains 30%, below 75% gains 15%, 75-85% is untouched and
// above 85% loses 10%. Domains with fewer than MinAttemptsForAdaptive combined
// attempts keep their configured weight. The result is renormalized to 1.
func (a *Allocator) AdjustWeights(domains []model.Domain, perf map[string]DomainPerformance) map[uint]float64 {
	adjusted := make(map[uint]float64, len(domains))
	sum := 0.0

	for _, d := range domains {
		w := d.Weight
		if p, ok := perf[d.Name]; ok && p.Attempts >= a.plan.MinAttemptsForAdaptive {
			switch {
			case p.Accuracy < 0.60:
				w *= 1.30
			case p.Accuracy < 0.75:
				w *= 1.15
			case p.Accuracy <= 0.85:
				// keep configured weight
			default:
				w *= 0.90
			}
		}
		adjusted[d.ID] = w
		sum += w
	}

	if sum > 0 {
		for id := range adjusted {
			adjusted[id] /= sum
		}
	}
	return adjusted
}

// StaticWeights returns the configured weights unmodified, keyed by domain id.
func StaticWeights(domains []model.Domain) map[uint]float64 {
	weights := make(map[uint]float64, len(domains))
	for _, d := range domains {
		weights[d.ID] = d.Weight
	}
	return weights
}

// SelectForDomain draws count questions from one domain's pool honoring the
// difficulty mix. Bands short on questions are backfilled from the rest of the
// pool; the draw is trimmed back to count if the bands overshoot. An
// insufficient total pool is a hard AllocationError.
func (a *Allocator) SelectForDomain(domainName string, pool []model.Question, count int, mix DifficultyMix) ([]model.Question, error) {
	if len(pool) < count {
		return nil, &AllocationError{DomainName: domainName, Requested: count, Available: len(pool)}
	}
	if count == 0 {
		return nil, nil
	}

	byBand := map[model.Difficulty][]model.Question{}
	for _, q := range pool {
		band := q.EffectiveDifficulty()
		byBand[band] = append(byBand[band], q)
	}

	targets := bandTargets(count, mix)
	picked := make([]model.Question, 0, count)
	taken := make(map[uint]bool, count)

	for _, band := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
		candidates := byBand[band]
		a.shuffleQuestions(candidates)
		n := targets[band]
		if n > len(candidates) {
			n = len(candidates)
		}
		for _, q := range candidates[:n] {
			picked = append(picked, q)
			taken[q.ID] = true
		}
	}

	// backfill the shortfall from the remaining pool, any difficulty
	if len(picked) < count {
		rest := make([]model.Question, 0, len(pool)-len(picked))
		for _, q := range pool {
			if !taken[q.ID] {
				rest = append(rest, q)
			}
		}
		a.shuffleQuestions(rest)
		need := count - len(picked)
		picked = append(picked, rest[:need]...)
	}

	if len(picked) > count {
		picked = picked[:count]
	}
	return picked, nil
}

// Allocate runs the full pipeline: counts per domain, stratified selection per
// domain, then a single shuffle of the concatenated list with QuestionIndex
// reassigned 0..N-1 in shuffled order. That final order is what the user sees.
func (a *Allocator) Allocate(domains []model.Domain, pools map[uint][]model.Question, perf map[string]DomainPerformance, adaptive bool) ([]AllocatedQuestion, error) {
	weights := StaticWeights(domains)
	if adaptive {
		weights = a.AdjustWeights(domains, perf)
	}
	counts := DomainCounts(a.plan.TotalQuestions, weights)

	byID := make(map[uint]model.Domain, len(domains))
	for _, d := range domains {
		byID[d.ID] = d
	}

	var all []model.Question
	for _, id := range sortedDomainIDs(weights) {
		d := byID[id]
		mix := MixBlend
		if adaptive {
			mix = a.plan.MixFor(perf[d.Name])
		}
		selected, err := a.SelectForDomain(d.Name, pools[id], counts[id], mix)
		if err != nil {
			return nil, err
		}
		all = append(all, selected...)
	}

	a.shuffleQuestions(all)

	out := make([]AllocatedQuestion, len(all))
	for i, q := range all {
		out[i] = AllocatedQuestion{Question: q, QuestionIndex: i}
	}
	return out, nil
}

func (a *Allocator) shuffleQuestions(qs []model.Question) {
	a.rng.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
}

// bandTargets floors each band's share; the flooring remainder lands on the
// medium band, the backfill pass absorbs any practical imbalance anyway.
func bandTargets(count int, mix DifficultyMix) map[model.Difficulty]int {
	easy := int(math.Floor(float64(count) * mix.Easy))
	hard := int(math.Floor(float64(count) * mix.Hard))
	medium := int(math.Floor(float64(count) * mix.Medium))
	if rem := count - easy - medium - hard; rem > 0 {
		medium += rem
	}
	return map[model.Difficulty]int{
		model.DifficultyEasy:   easy,
		model.DifficultyMedium: medium,
		model.DifficultyHard:   hard,
	}
}

func sortedDomainIDs(weights map[uint]float64) []uint {
	ids := make([]uint, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
