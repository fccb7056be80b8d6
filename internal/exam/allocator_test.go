package exam

import (
	"errors"
	"math/rand"
	"testing"

	"pmp_prep_backend/internal/model"
)

func approx(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}

func testDomains() []model.Domain {
	return []model.Domain{
		{BaseModel: model.BaseModel{ID: 1}, Name: "People", Weight: 0.33},
		{BaseModel: model.BaseModel{ID: 2}, Name: "Process", Weight: 0.41},
		{BaseModel: model.BaseModel{ID: 3}, Name: "Business Environment", Weight: 0.26},
	}
}

func makePool(startID, taskID uint, n int, difficulty model.Difficulty) []model.Question {
	pool := make([]model.Question, n)
	for i := 0; i < n; i++ {
		d := difficulty
		pool[i] = model.Question{
			BaseModel:     model.BaseModel{ID: startID + uint(i)},
			TaskID:        taskID,
			CorrectAnswer: "A",
			Difficulty:    &d,
		}
	}
	return pool
}

func mixedPool(startID, taskID uint, easy, medium, hard int) []model.Question {
	pool := makePool(startID, taskID, easy, model.DifficultyEasy)
	pool = append(pool, makePool(startID+uint(easy), taskID, medium, model.DifficultyMedium)...)
	pool = append(pool, makePool(startID+uint(easy+medium), taskID, hard, model.DifficultyHard)...)
	return pool
}

func TestDomainCounts(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		weights map[uint]float64
		want    map[uint]int
	}{
		{
			name:    "standard pmp outline",
			total:   185,
			weights: map[uint]float64{1: 0.33, 2: 0.41, 3: 0.26},
			want:    map[uint]int{1: 61, 2: 76, 3: 48},
		},
		{
			name:    "even split with remainder",
			total:   10,
			weights: map[uint]float64{1: 0.5, 2: 0.25, 3: 0.25},
			want:    map[uint]int{1: 5, 2: 2, 3: 2},
		},
		{
			name:    "single domain takes everything",
			total:   50,
			weights: map[uint]float64{7: 1.0},
			want:    map[uint]int{7: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DomainCounts(tt.total, tt.weights)

			sum := 0
			for id, n := range got {
				sum += n
				if want, ok := tt.want[id]; ok && n != want {
					t.Errorf("domain %d: got %d, want %d", id, n, want)
				}
			}
			// the remainder case above: id 1 gets 5+1=6
			if tt.name == "even split with remainder" {
				if got[1] != 6 {
					t.Errorf("largest-weight domain should absorb remainder: got %d, want 6", got[1])
				}
				sum = got[1] + got[2] + got[3]
			}
			if sum != tt.total {
				t.Errorf("counts sum to %d, want %d", sum, tt.total)
			}
		})
	}
}

func TestDomainCountsSumInvariant(t *testing.T) {
	weightSets := []map[uint]float64{
		{1: 0.33, 2: 0.41, 3: 0.26},
		{1: 0.429, 2: 0.3485, 3: 0.2223},
		{1: 0.297, 2: 0.471, 3: 0.232},
		{1: 0.2, 2: 0.2, 3: 0.2, 4: 0.2, 5: 0.2},
	}
	for _, weights := range weightSets {
		counts := DomainCounts(185, weights)
		sum := 0
		for _, n := range counts {
			sum += n
		}
		if sum != 185 {
			t.Errorf("weights %v: counts sum to %d, want 185", weights, sum)
		}
	}
}

func TestAdjustWeights(t *testing.T) {
	alloc := NewAllocator(DefaultPlan(), rand.New(rand.NewSource(1)))
	domains := testDomains()

	tests := []struct {
		name     string
		perf     map[string]DomainPerformance
		wantRank func(w map[uint]float64) bool
	}{
		{
			name: "weak domain gains share",
			perf: map[string]DomainPerformance{
				"People": {Accuracy: 0.50, Attempts: 20},
			},
			wantRank: func(w map[uint]float64) bool {
				// 0.33*1.3=0.429 pushes People past Process's 0.41
				return w[1] > w[2]
			},
		},
		{
			name: "strong domain loses share",
			perf: map[string]DomainPerformance{
				"Process": {Accuracy: 0.90, Attempts: 20},
			},
			wantRank: func(w map[uint]float64) bool {
				// 0.41*0.9=0.369 post-normalization still exceeds People's 0.33
				return w[2] > w[1] && w[2] < 0.41
			},
		},
		{
			name: "too few attempts keeps configured weight",
			perf: map[string]DomainPerformance{
				"People": {Accuracy: 0.10, Attempts: 4},
			},
			wantRank: func(w map[uint]float64) bool {
				return w[2] > w[1] && w[1] > w[3]
			},
		},
		{
			name: "middle band untouched",
			perf: map[string]DomainPerformance{
				"People":               {Accuracy: 0.80, Attempts: 20},
				"Process":              {Accuracy: 0.80, Attempts: 20},
				"Business Environment": {Accuracy: 0.80, Attempts: 20},
			},
			wantRank: func(w map[uint]float64) bool {
				return approx(w[1], 0.33) && approx(w[2], 0.41) && approx(w[3], 0.26)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := alloc.AdjustWeights(domains, tt.perf)

			sum := 0.0
			for _, w := range got {
				sum += w
			}
			if sum < 0.999 || sum > 1.001 {
				t.Errorf("adjusted weights sum to %f, want 1.0", sum)
			}
			if !tt.wantRank(got) {
				t.Errorf("unexpected weight ranking: %v", got)
			}
		})
	}
}

func TestSelectForDomainShortage(t *testing.T) {
	alloc := NewAllocator(DefaultPlan(), rand.New(rand.NewSource(1)))
	pool := makePool(1, 1, 10, model.DifficultyMedium)

	_, err := alloc.SelectForDomain("People", pool, 11, MixBlend)
	var allocErr *AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("want AllocationError, got %v", err)
	}
	if allocErr.Requested != 11 || allocErr.Available != 10 || allocErr.DomainName != "People" {
		t.Errorf("unexpected error detail: %+v", allocErr)
	}
}

func TestSelectForDomainBackfill(t *testing.T) {
	alloc := NewAllocator(DefaultPlan(), rand.New(rand.NewSource(1)))
	// no hard questions at all; MixBlend wants 25% hard
	pool := mixedPool(1, 1, 10, 10, 0)

	selected, err := alloc.SelectForDomain("People", pool, 20, MixBlend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 20 {
		t.Fatalf("got %d questions, want 20 despite empty hard band", len(selected))
	}

	seen := make(map[uint]bool, len(selected))
	for _, q := range selected {
		if seen[q.ID] {
			t.Errorf("question %d selected twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSelectForDomainMix(t *testing.T) {
	alloc := NewAllocator(DefaultPlan(), rand.New(rand.NewSource(1)))
	pool := mixedPool(1, 1, 40, 40, 40)

	selected, err := alloc.SelectForDomain("Process", pool, 20, MixEasier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byBand := map[model.Difficulty]int{}
	for _, q := range selected {
		byBand[q.EffectiveDifficulty()]++
	}
	// MixEasier on 20: floor 10 easy, 8 medium, 2 hard
	if byBand[model.DifficultyEasy] != 10 || byBand[model.DifficultyMedium] != 8 || byBand[model.DifficultyHard] != 2 {
		t.Errorf("band distribution %v, want easy=10 medium=8 hard=2", byBand)
	}
}

func TestAllocateFullExam(t *testing.T) {
	alloc := NewAllocator(DefaultPlan(), rand.New(rand.NewSource(42)))
	domains := testDomains()
	pools := map[uint][]model.Question{
		1: mixedPool(1000, 1, 30, 30, 30),
		2: mixedPool(2000, 2, 30, 30, 30),
		3: mixedPool(3000, 3, 30, 30, 30),
	}

	allocated, err := alloc.Allocate(domains, pools, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(allocated) != 185 {
		t.Fatalf("got %d questions, want 185", len(allocated))
	}

	perDomain := map[uint]int{}
	seenIdx := make(map[int]bool, len(allocated))
	for _, aq := range allocated {
		perDomain[aq.Question.ID/1000]++
		if seenIdx[aq.QuestionIndex] {
			t.Errorf("duplicate question index %d", aq.QuestionIndex)
		}
		seenIdx[aq.QuestionIndex] = true
		if aq.QuestionIndex < 0 || aq.QuestionIndex >= 185 {
			t.Errorf("question index %d out of range", aq.QuestionIndex)
		}
	}

	if perDomain[1] != 61 || perDomain[2] != 76 || perDomain[3] != 48 {
		t.Errorf("per-domain counts %v, want 61/76/48", perDomain)
	}
}

func TestAllocatePropagatesShortage(t *testing.T) {
	alloc := NewAllocator(DefaultPlan(), rand.New(rand.NewSource(42)))
	domains := testDomains()
	pools := map[uint][]model.Question{
		1: mixedPool(1000, 1, 30, 30, 30),
		2: mixedPool(2000, 2, 10, 10, 10), // 30 < 76 required
		3: mixedPool(3000, 3, 30, 30, 30),
	}

	_, err := alloc.Allocate(domains, pools, nil, false)
	var allocErr *AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("want AllocationError, got %v", err)
	}
	if allocErr.DomainName != "Process" {
		t.Errorf("shortage reported for %q, want Process", allocErr.DomainName)
	}
}

func TestMixFor(t *testing.T) {
	plan := DefaultPlan()
	tests := []struct {
		name string
		perf DomainPerformance
		want DifficultyMix
	}{
		{"no history", DomainPerformance{}, MixBlend},
		{"too few attempts", DomainPerformance{Accuracy: 0.30, Attempts: 4}, MixBlend},
		{"struggling", DomainPerformance{Accuracy: 0.50, Attempts: 10}, MixEasier},
		{"steady", DomainPerformance{Accuracy: 0.75, Attempts: 10}, MixBlend},
		{"strong", DomainPerformance{Accuracy: 0.90, Attempts: 10}, MixHarder},
		{"boundary 0.65", DomainPerformance{Accuracy: 0.65, Attempts: 10}, MixBlend},
		{"boundary 0.85", DomainPerformance{Accuracy: 0.85, Attempts: 10}, MixBlend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plan.MixFor(tt.perf); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
