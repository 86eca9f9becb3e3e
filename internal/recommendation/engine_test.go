package recommendation

import (
	"sync"
	"testing"

	"bizmatch-workers/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestEngine() *Engine {
	return NewEngine(catalog.Default())
}

func intPtr(v int) *int { return &v }

func categoryPtr(c catalog.Category) *catalog.Category { return &c }

func breakdownFor(t *testing.T, scored []Scored, title string) Breakdown {
	t.Helper()
	for _, s := range scored {
		if s.Business.Title == title {
			return s.Breakdown
		}
	}
	t.Fatalf("title %q not scored", title)
	return Breakdown{}
}

func titles(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func technologyProfile() UserProfile {
	return UserProfile{
		Interests:  []catalog.Category{catalog.CategoryTechnology},
		Budget:     200000,
		Location:   LocationUrban,
		Experience: ExperienceSome,
	}
}

// ==========================
// Ranking Properties
// ==========================

func TestEngine_Recommend_OneEntryPerCatalogRecord(t *testing.T) {
	engine := newTestEngine()

	profiles := []UserProfile{
		{},
		technologyProfile(),
		{Interests: catalog.Categories, Budget: 5000000, Location: LocationRural, Experience: ExperienceExperienced},
		{Budget: 1, Location: LocationOnlineOnly, Experience: ExperienceNone},
	}

	for _, p := range profiles {
		recs := engine.Recommend(p)
		assert.Len(t, recs, catalog.Default().Len())

		seen := map[string]bool{}
		for _, r := range recs {
			assert.False(t, seen[r.Title], "duplicate %s", r.Title)
			seen[r.Title] = true
			assert.GreaterOrEqual(t, r.MatchPercentage, 0)
			assert.LessOrEqual(t, r.MatchPercentage, MaxMatchPercentage)
			assert.Equal(t, catalog.Slug(r.Title), r.Slug)
		}
	}
}

func TestEngine_Score_StableDescendingOrder(t *testing.T) {
	engine := newTestEngine()
	scored := engine.Score(technologyProfile())

	catalogIndex := map[string]int{}
	for i, e := range catalog.Default().Entries() {
		catalogIndex[e.Title] = i
	}

	for i := 1; i < len(scored); i++ {
		prev, cur := scored[i-1], scored[i]
		assert.GreaterOrEqual(t, prev.Score, cur.Score)
		if prev.Score == cur.Score {
			assert.Less(t, catalogIndex[prev.Business.Title], catalogIndex[cur.Business.Title],
				"%s and %s tie and must keep catalog order", prev.Business.Title, cur.Business.Title)
		}
	}
}

func TestEngine_Recommend_DocumentedRanking(t *testing.T) {
	engine := newTestEngine()
	recs := engine.Recommend(technologyProfile())

	assert.Equal(t, []string{
		"IT Consulting",
		"Tech Repair Service",
		"Computer Shop",
		"Online Education Platform",
		"Digital Marketing Agency",
		"Personal Fitness Training",
		"Healthcare Consultancy",
		"Coffee Shop",
		"Food Truck",
		"Sustainable Retail Store",
	}, titles(recs))

	percentages := make([]int, len(recs))
	for i, r := range recs {
		percentages[i] = r.MatchPercentage
	}
	assert.Equal(t, []int{98, 95, 70, 65, 60, 60, 55, 20, 20, 20}, percentages)
}

func TestEngine_Recommend_Idempotent(t *testing.T) {
	engine := newTestEngine()
	p := technologyProfile()
	assert.Equal(t, engine.Recommend(p), engine.Recommend(p))
}

func TestEngine_Recommend_ConcurrentCallers(t *testing.T) {
	engine := newTestEngine()
	p := technologyProfile()
	expected := engine.Recommend(p)

	var wg sync.WaitGroup
	results := make([][]Recommendation, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = engine.Recommend(p)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, expected, r)
	}
}

// ==========================
// Axis Tests
// ==========================

func TestEngine_CategoryAxis(t *testing.T) {
	engine := newTestEngine()

	scored := engine.Score(UserProfile{Interests: []catalog.Category{catalog.CategoryEducation}})
	assert.Equal(t, "Online Education Platform", scored[0].Business.Title)
	assert.Equal(t, CategoryPoints, scored[0].Breakdown.Category)
	for _, s := range scored[1:] {
		assert.Zero(t, s.Breakdown.Category, s.Business.Title)
	}

	// Overlapping categories collapse; Computer Shop is in both and scores once.
	scored = engine.Score(UserProfile{Interests: []catalog.Category{catalog.CategoryTechnology, catalog.CategoryRetail}})
	assert.Equal(t, CategoryPoints, breakdownFor(t, scored, "Computer Shop").Category)
	assert.Zero(t, breakdownFor(t, scored, "Coffee Shop").Category)

	// Categories with no businesses award nothing.
	scored = engine.Score(UserProfile{Interests: []catalog.Category{catalog.CategoryConstruction}})
	for _, s := range scored {
		assert.Zero(t, s.Breakdown.Category)
	}
}

func TestEngine_EducationInterestRanksPlatformFirst(t *testing.T) {
	engine := newTestEngine()
	recs := engine.Recommend(UserProfile{
		Interests:  []catalog.Category{catalog.CategoryEducation},
		Budget:     150000,
		Location:   LocationSuburban,
		Experience: ExperienceModerate,
	})
	assert.Equal(t, "Online Education Platform", recs[0].Title)
}

func TestBudgetScore(t *testing.T) {
	techRepair := catalog.CostRange{Min: 100000, Max: 250000}

	tests := []struct {
		name     string
		budget   float64
		cost     catalog.CostRange
		expected int
	}{
		{name: "exactly min", budget: 100000, cost: techRepair, expected: BudgetCoveredPoints},
		{name: "one and a half times min", budget: 150000, cost: techRepair, expected: BudgetComfortablePoints},
		{name: "just under one and a half", budget: 149999, cost: techRepair, expected: BudgetCoveredPoints},
		{name: "at max", budget: 250000, cost: catalog.CostRange{Min: 200000, Max: 250000}, expected: BudgetComfortablePoints},
		{name: "grace band edge", budget: 70000, cost: techRepair, expected: BudgetGracePoints},
		{name: "below grace band", budget: 69999, cost: techRepair, expected: 0},
		{name: "zero budget", budget: 0, cost: techRepair, expected: 0},
		{name: "fractional budget", budget: 99999.5, cost: techRepair, expected: BudgetGracePoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, budgetScore(tt.budget, tt.cost))
		})
	}
}

func TestEngine_BudgetAxis_DocumentedCatalog(t *testing.T) {
	engine := newTestEngine()

	scored := engine.Score(UserProfile{Budget: 100000})
	assert.Equal(t, BudgetCoveredPoints, breakdownFor(t, scored, "Tech Repair Service").Budget)

	scored = engine.Score(UserProfile{Budget: 150000})
	assert.Equal(t, BudgetComfortablePoints, breakdownFor(t, scored, "Tech Repair Service").Budget)
}

func TestEngine_LocationAxis(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		location Location
		expected map[string]int
	}{
		{
			name:     "online only",
			location: LocationOnlineOnly,
			expected: map[string]int{
				"Digital Marketing Agency":  LocationPrimaryPoints,
				"Online Education Platform": LocationPrimaryPoints,
				"Coffee Shop":               0,
				"IT Consulting":             0,
			},
		},
		{
			name:     "urban",
			location: LocationUrban,
			expected: map[string]int{
				"Online Education Platform": 0,
				"Coffee Shop":               LocationPrimaryPoints,
				"Digital Marketing Agency":  LocationPrimaryPoints,
			},
		},
		{
			name:     "suburban",
			location: LocationSuburban,
			expected: map[string]int{
				"Online Education Platform": 0,
				"Digital Marketing Agency":  0,
				"Food Truck":                LocationSuburbanPoints,
			},
		},
		{
			name:     "rural",
			location: LocationRural,
			expected: map[string]int{
				"IT Consulting":             LocationRuralPoints,
				"Personal Fitness Training": LocationRuralPoints,
				"Coffee Shop":               0,
				"Computer Shop":             0,
			},
		},
		{
			name:     "unset",
			location: LocationUnset,
			expected: map[string]int{
				"Coffee Shop":              0,
				"Digital Marketing Agency": 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := engine.Score(UserProfile{Location: tt.location})
			for title, points := range tt.expected {
				assert.Equal(t, points, breakdownFor(t, scored, title).Location, title)
			}
		})
	}
}

func TestEngine_ExperienceAxis(t *testing.T) {
	tests := []struct {
		experience Experience
		risk       catalog.RiskLevel
		expected   int
	}{
		{ExperienceNone, catalog.RiskVeryLow, ExperienceMatchPoints},
		{ExperienceNone, catalog.RiskLow, ExperienceStretchPoints},
		{ExperienceNone, catalog.RiskLowToModerate, ExperienceFloorPoints},
		{ExperienceSome, catalog.RiskLowToModerate, ExperienceStretchPoints},
		{ExperienceModerate, catalog.RiskModerate, ExperienceStretchPoints},
		{ExperienceExperienced, catalog.RiskModerate, ExperienceMatchPoints},
		{ExperienceExperienced, catalog.RiskModerateToHigh, ExperienceStretchPoints},
		{ExperienceExperienced, catalog.RiskHigh, ExperienceFloorPoints},
		{ExperienceSome, catalog.RiskHigh, ExperienceFloorPoints},
		{ExperienceUnset, catalog.RiskVeryLow, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.experience)+"/"+string(tt.risk), func(t *testing.T) {
			assert.Equal(t, tt.expected, experienceScore(tt.experience, tt.risk))
		})
	}
}

func TestEngine_ExperienceAxis_FloorOnceSet(t *testing.T) {
	engine := newTestEngine()
	for _, exp := range []Experience{ExperienceNone, ExperienceSome, ExperienceModerate, ExperienceExperienced} {
		for _, s := range engine.Score(UserProfile{Experience: exp}) {
			assert.GreaterOrEqual(t, s.Breakdown.Experience, ExperienceFloorPoints, "%s/%s", exp, s.Business.Title)
		}
	}
}

func TestEngine_MatchPercentageCap(t *testing.T) {
	c, err := catalog.Build(catalog.Document{
		Businesses: []catalog.BusinessOpportunity{
			{Title: "Perfect Fit", StartupCost: "₱1,000 - ₱2,000", RiskLevel: catalog.RiskVeryLow},
			{Title: "Other", StartupCost: "₱1,000,000 - ₱2,000,000", RiskLevel: catalog.RiskHigh},
		},
		Categories: map[string][]string{"Technology": {"Perfect Fit"}},
	})
	require.NoError(t, err)

	engine := NewEngine(c)
	scored := engine.Score(UserProfile{
		Interests:  []catalog.Category{catalog.CategoryTechnology},
		Budget:     5000,
		Location:   LocationUrban,
		Experience: ExperienceNone,
	})

	require.Equal(t, "Perfect Fit", scored[0].Business.Title)
	assert.Equal(t, 100, scored[0].Score)
	assert.Equal(t, MaxMatchPercentage, scored[0].MatchPercentage)

	recs := engine.Recommend(UserProfile{
		Interests:  []catalog.Category{catalog.CategoryTechnology},
		Budget:     5000,
		Location:   LocationUrban,
		Experience: ExperienceNone,
	})
	assert.Equal(t, 98, recs[0].MatchPercentage)
}

// ==========================
// Filter Tests
// ==========================

func TestEngine_ApplyFilters(t *testing.T) {
	engine := newTestEngine()
	recs := engine.Recommend(technologyProfile())

	tests := []struct {
		name     string
		filters  Filters
		expected []string
	}{
		{
			name:     "no filters",
			filters:  Filters{},
			expected: titles(recs),
		},
		{
			name:     "category",
			filters:  Filters{Category: categoryPtr(catalog.CategoryTechnology)},
			expected: []string{"IT Consulting", "Tech Repair Service", "Computer Shop", "Online Education Platform"},
		},
		{
			name:     "category and max budget",
			filters:  Filters{Category: categoryPtr(catalog.CategoryTechnology), MaxBudget: intPtr(100000)},
			expected: []string{"IT Consulting", "Tech Repair Service"},
		},
		{
			name:     "all three",
			filters:  Filters{Category: categoryPtr(catalog.CategoryTechnology), MaxBudget: intPtr(100000), MinMatch: intPtr(96)},
			expected: []string{"IT Consulting"},
		},
		{
			name:     "min match only",
			filters:  Filters{MinMatch: intPtr(60)},
			expected: []string{"IT Consulting", "Tech Repair Service", "Computer Shop", "Online Education Platform", "Digital Marketing Agency", "Personal Fitness Training"},
		},
		{
			name:     "empty category",
			filters:  Filters{Category: categoryPtr(catalog.CategoryManufacturing)},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.ApplyFilters(recs, tt.filters)
			assert.Equal(t, tt.expected, titles(got))
		})
	}

	assert.Len(t, recs, 10, "filtering must not modify the input slice")
}

func TestEngine_RecommendWithFilters(t *testing.T) {
	engine := newTestEngine()
	got := engine.RecommendWithFilters(technologyProfile(), Filters{MaxBudget: intPtr(50000)})
	assert.Equal(t, []string{"IT Consulting", "Digital Marketing Agency", "Personal Fitness Training"}, titles(got))
}

// ==========================
// Profile Parsing
// ==========================

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input    string
		expected Location
		wantErr  bool
	}{
		{input: "", expected: LocationUnset},
		{input: "Urban", expected: LocationUrban},
		{input: "suburban", expected: LocationSuburban},
		{input: " RURAL ", expected: LocationRural},
		{input: "Online Only", expected: LocationOnlineOnly},
		{input: "online-only", expected: LocationOnlineOnly},
		{input: "Moon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLocation(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseExperience(t *testing.T) {
	for input, level := range map[string]int{"none": 0, "Some": 1, "MODERATE": 2, "experienced": 3} {
		exp, err := ParseExperience(input)
		require.NoError(t, err)
		assert.Equal(t, level, exp.Level())
	}

	exp, err := ParseExperience("  ")
	require.NoError(t, err)
	assert.Equal(t, ExperienceUnset, exp)

	_, err = ParseExperience("guru")
	assert.Error(t, err)
}

func TestUserProfile_Validate(t *testing.T) {
	assert.NoError(t, technologyProfile().Validate())
	assert.NoError(t, UserProfile{}.Validate())

	assert.Error(t, UserProfile{Budget: -1}.Validate())
	assert.Error(t, UserProfile{Interests: []catalog.Category{"Gaming"}}.Validate())
	assert.Error(t, UserProfile{Location: "Moon"}.Validate())
	assert.Error(t, UserProfile{Experience: "guru"}.Validate())
}
