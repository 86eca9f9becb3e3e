// Package recommendation ranks catalog businesses against questionnaire answers.
// Scoring is additive over four independent axes with a 100 point maximum:
//
//	category    0 or 40
//	budget      0, 10, 20 or 30
//	location    0, 5, 10 or 15
//	experience  0, 5, 10 or 15
//
// The displayed match percentage is capped at 98.
package recommendation

import (
	"math"
	"sort"

	"bizmatch-workers/internal/catalog"
)

const (
	CategoryPoints = 40

	BudgetComfortablePoints = 30
	BudgetCoveredPoints     = 20
	BudgetGracePoints       = 10

	LocationPrimaryPoints   = 15
	LocationSuburbanPoints  = 10
	LocationRuralPoints     = 5
	ExperienceMatchPoints   = 15
	ExperienceStretchPoints = 10
	ExperienceFloorPoints   = 5

	MaxMatchPercentage = 98
)

const (
	comfortableBudgetFactor = 1.5
	graceBudgetFactor       = 0.7
)

// Breakdown records the points awarded on each axis.
type Breakdown struct {
	Category   int `json:"category"`
	Budget     int `json:"budget"`
	Location   int `json:"location"`
	Experience int `json:"experience"`
}

func (b Breakdown) Total() int {
	return b.Category + b.Budget + b.Location + b.Experience
}

// Scored is an internal ranking entry. The raw score never leaves this package
// through Recommend.
type Scored struct {
	Business        catalog.BusinessOpportunity `json:"business"`
	Breakdown       Breakdown                   `json:"breakdown"`
	Score           int                         `json:"score"`
	MatchPercentage int                         `json:"matchPercentage"`
}

// Recommendation is a catalog entry annotated with its match percentage.
type Recommendation struct {
	catalog.BusinessOpportunity
	Slug            string `json:"slug"`
	MatchPercentage int    `json:"matchPercentage"`
}

// Engine scores profiles against one catalog. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
}

func NewEngine(c *catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Score returns every catalog entry with its per-axis breakdown, sorted by raw
// score descending. Ties keep catalog order.
func (e *Engine) Score(profile UserProfile) []Scored {
	interested := e.catalog.TitlesFor(profile.Interests...)

	entries := e.catalog.Entries()
	scored := make([]Scored, 0, len(entries))
	for i := range entries {
		b := &entries[i]
		bd := Breakdown{
			Category:   categoryScore(interested, b),
			Budget:     budgetScore(profile.Budget, b.Cost),
			Location:   locationScore(profile.Location, b),
			Experience: experienceScore(profile.Experience, b.RiskLevel),
		}
		total := bd.Total()
		scored = append(scored, Scored{
			Business:        *b,
			Breakdown:       bd,
			Score:           total,
			MatchPercentage: matchPercentage(float64(total)),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Recommend returns one recommendation per catalog entry, best match first.
func (e *Engine) Recommend(profile UserProfile) []Recommendation {
	scored := e.Score(profile)
	out := make([]Recommendation, len(scored))
	for i, s := range scored {
		out[i] = Recommendation{
			BusinessOpportunity: s.Business,
			Slug:                s.Business.Slug(),
			MatchPercentage:     s.MatchPercentage,
		}
	}
	return out
}

// ApplyFilters keeps the recommendations passing every set filter, checked in
// the order category, max budget, min match. Relative order is preserved.
func (e *Engine) ApplyFilters(recs []Recommendation, f Filters) []Recommendation {
	out := recs
	if f.Category != nil {
		allowed := e.catalog.TitlesFor(*f.Category)
		out = keep(out, func(r Recommendation) bool { return allowed.Has(r.Title) })
	}
	if f.MaxBudget != nil {
		limit := *f.MaxBudget
		out = keep(out, func(r Recommendation) bool { return r.Cost.Min <= limit })
	}
	if f.MinMatch != nil {
		threshold := *f.MinMatch
		out = keep(out, func(r Recommendation) bool { return r.MatchPercentage >= threshold })
	}
	return out
}

func (e *Engine) RecommendWithFilters(profile UserProfile, f Filters) []Recommendation {
	return e.ApplyFilters(e.Recommend(profile), f)
}

func keep(recs []Recommendation, pred func(Recommendation) bool) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func categoryScore(interested catalog.TitleSet, b *catalog.BusinessOpportunity) int {
	if interested.Has(b.Title) {
		return CategoryPoints
	}
	return 0
}

func budgetScore(budget float64, cost catalog.CostRange) int {
	lo, hi := float64(cost.Min), float64(cost.Max)
	switch {
	case budget >= lo && (budget >= hi || budget >= lo*comfortableBudgetFactor):
		return BudgetComfortablePoints
	case budget >= lo:
		return BudgetCoveredPoints
	case budget >= lo*graceBudgetFactor:
		return BudgetGracePoints
	default:
		return 0
	}
}

func locationScore(loc Location, b *catalog.BusinessOpportunity) int {
	switch {
	case loc == LocationOnlineOnly && b.OnlineFriendly:
		return LocationPrimaryPoints
	case loc == LocationUrban && !b.UrbanExcluded:
		return LocationPrimaryPoints
	case loc == LocationSuburban && !b.OnlineFriendly:
		return LocationSuburbanPoints
	case loc == LocationRural && b.LowRisk:
		return LocationRuralPoints
	default:
		return 0
	}
}

func experienceScore(exp Experience, risk catalog.RiskLevel) int {
	if exp == ExperienceUnset {
		return 0
	}
	level, rank := exp.Level(), risk.Rank()
	switch {
	case level >= rank:
		return ExperienceMatchPoints
	case level+1 >= rank:
		return ExperienceStretchPoints
	default:
		return ExperienceFloorPoints
	}
}

func matchPercentage(score float64) int {
	p := int(math.Round(score))
	if p > MaxMatchPercentage {
		return MaxMatchPercentage
	}
	return p
}
