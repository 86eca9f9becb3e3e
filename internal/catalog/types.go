package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// RiskLevel is the ordered risk classification of a business opportunity.
type RiskLevel string

const (
	RiskVeryLow        RiskLevel = "Very Low"
	RiskLow            RiskLevel = "Low"
	RiskLowToModerate  RiskLevel = "Low to Moderate"
	RiskModerate       RiskLevel = "Moderate"
	RiskModerateToHigh RiskLevel = "Moderate to High"
	RiskHigh           RiskLevel = "High"
)

var riskRanks = map[RiskLevel]int{
	RiskVeryLow:        0,
	RiskLow:            1,
	RiskLowToModerate:  2,
	RiskModerate:       3,
	RiskModerateToHigh: 4,
	RiskHigh:           5,
}

// ParseRiskLevel returns the RiskLevel for s or an error if s is not one of the six levels.
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(strings.TrimSpace(s))
	if _, ok := riskRanks[level]; !ok {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return level, nil
}

// Rank returns the ordinal of the level, 0 (Very Low) through 5 (High).
func (r RiskLevel) Rank() int {
	return riskRanks[r]
}

func (r RiskLevel) Valid() bool {
	_, ok := riskRanks[r]
	return ok
}

// Category is a user-facing business interest category.
type Category string

const (
	CategoryTechnology           Category = "Technology"
	CategoryFoodAndBeverage      Category = "Food & Beverage"
	CategoryRetail               Category = "Retail"
	CategoryProfessionalServices Category = "Professional Services"
	CategoryHealthAndWellness    Category = "Health & Wellness"
	CategoryEducation            Category = "Education"
	CategoryEntertainment        Category = "Entertainment"
	CategoryManufacturing        Category = "Manufacturing"
	CategoryConstruction         Category = "Construction"
	CategoryTransportation       Category = "Transportation"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryTechnology,
	CategoryFoodAndBeverage,
	CategoryRetail,
	CategoryProfessionalServices,
	CategoryHealthAndWellness,
	CategoryEducation,
	CategoryEntertainment,
	CategoryManufacturing,
	CategoryConstruction,
	CategoryTransportation,
}

// ParseCategory matches s against the known categories, ignoring case and surrounding space.
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// CostRange is a closed startup investment interval in whole currency units.
type CostRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var costRangeNoise = strings.NewReplacer("₱", "", "$", "", ",", "", " ", "")

// ParseCostRange parses strings such as "₱250,000 - ₱500,000".
func ParseCostRange(s string) (CostRange, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return CostRange{}, fmt.Errorf("cost range %q must have exactly two bounds", s)
	}

	var bounds [2]int
	for i, p := range parts {
		digits := costRangeNoise.Replace(p)
		if digits == "" {
			return CostRange{}, fmt.Errorf("cost range %q has an empty bound", s)
		}
		var n int
		for _, ch := range digits {
			if ch < '0' || ch > '9' {
				return CostRange{}, fmt.Errorf("cost range %q has a non-numeric bound %q", s, strings.TrimSpace(p))
			}
			n = n*10 + int(ch-'0')
		}
		if n <= 0 {
			return CostRange{}, fmt.Errorf("cost range %q bounds must be positive", s)
		}
		bounds[i] = n
	}

	if bounds[0] > bounds[1] {
		return CostRange{}, fmt.Errorf("cost range %q has min greater than max", s)
	}
	return CostRange{Min: bounds[0], Max: bounds[1]}, nil
}

// BusinessOpportunity is one immutable catalog record.
type BusinessOpportunity struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartupCost     string    `json:"startupCost"`
	Cost            CostRange `json:"cost"` // derived from StartupCost on load
	ProfitMargin    string    `json:"profitMargin"`
	TimeToProfit    string    `json:"timeToProfit"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	KeyRequirements []string  `json:"keyRequirements"`
	ExpertAdvice    string    `json:"expertAdvice"`

	// OnlineFriendly marks businesses that can run entirely online.
	OnlineFriendly bool `json:"onlineFriendly"`
	// LowRisk marks businesses viable in rural areas. It is an operational
	// flag and does not follow RiskLevel.
	LowRisk bool `json:"lowRisk"`
	// UrbanExcluded marks businesses that gain nothing from an urban location.
	UrbanExcluded bool `json:"urbanExcluded"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slug derives the detail-page key: lowercase title, whitespace runs replaced with hyphens.
func Slug(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(title), "-")
}

func (b BusinessOpportunity) Slug() string {
	return Slug(b.Title)
}

func (b BusinessOpportunity) clone() BusinessOpportunity {
	out := b
	out.KeyRequirements = append([]string(nil), b.KeyRequirements...)
	return out
}
