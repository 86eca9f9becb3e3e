package recommendation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bizmatch-workers/internal/catalog"
	"bizmatch-workers/internal/common/errors"
)

// Form keys accepted by ParseForm.
const (
	FormInterests  = "interests"
	FormSkills     = "skills"
	FormGoals      = "goals"
	FormBudget     = "budget"
	FormLocation   = "location"
	FormExperience = "experience"
	FormFilters    = "filters"

	FilterCategory  = "category"
	FilterMaxBudget = "maxBudget"
	FilterMinMatch  = "minMatch"
)

var budgetNoise = strings.NewReplacer("₱", "", "$", "", "PHP", "", "php", "", ",", "", " ", "")

// ParseForm turns raw questionnaire answers into a profile and post-filters.
// It accepts the loose shapes the web form produces: interests as an array or
// a comma separated string, budget as a number, a numeric string or the
// single-element array of the budget slider. Unknown enum values fail with
// INVALID_PROFILE, malformed filters with INVALID_FILTER_FORMAT.
func ParseForm(raw map[string]interface{}) (UserProfile, Filters, error) {
	var profile UserProfile
	if raw == nil {
		return UserProfile{Interests: []catalog.Category{}}, Filters{}, nil
	}

	interests, err := parseInterests(raw[FormInterests])
	if err != nil {
		return UserProfile{}, Filters{}, errors.NewInvalidProfileError(err.Error())
	}
	profile.Interests = interests

	if v, ok := raw[FormBudget]; ok && v != nil {
		budget, err := parseNumber(v)
		if err != nil {
			return UserProfile{}, Filters{}, errors.NewInvalidProfileError(fmt.Sprintf("budget: %v", err))
		}
		if budget < 0 {
			return UserProfile{}, Filters{}, errors.NewInvalidProfileError(fmt.Sprintf("budget must not be negative, got %v", budget))
		}
		profile.Budget = budget
	}

	location, err := ParseLocation(stringValue(raw[FormLocation]))
	if err != nil {
		return UserProfile{}, Filters{}, errors.NewInvalidProfileError(err.Error())
	}
	profile.Location = location

	experience, err := ParseExperience(stringValue(raw[FormExperience]))
	if err != nil {
		return UserProfile{}, Filters{}, errors.NewInvalidProfileError(err.Error())
	}
	profile.Experience = experience

	profile.Skills = joinedText(raw[FormSkills])
	profile.Goals = joinedText(raw[FormGoals])

	filters, err := ParseFilters(raw[FormFilters])
	if err != nil {
		return UserProfile{}, Filters{}, err
	}

	return profile, filters, nil
}

// ParseFilters reads the optional filters object. Nil, empty strings and the
// category value "all" leave the matching filter unset.
func ParseFilters(raw interface{}) (Filters, error) {
	var f Filters
	if raw == nil {
		return f, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return f, errors.NewInvalidFilterFormatError(fmt.Sprintf("filters must be an object, got %T", raw))
	}

	if v, ok := m[FilterCategory]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return Filters{}, errors.NewInvalidFilterFormatError(fmt.Sprintf("category must be a string, got %T", v))
		}
		if s = strings.TrimSpace(s); s != "" && !strings.EqualFold(s, "all") {
			c, err := catalog.ParseCategory(s)
			if err != nil {
				return Filters{}, errors.NewInvalidFilterFormatError(err.Error())
			}
			f.Category = &c
		}
	}

	if v, ok := m[FilterMaxBudget]; ok && !blank(v) {
		n, err := parseNumber(v)
		if err != nil || n < 0 {
			return Filters{}, errors.NewInvalidFilterFormatError(fmt.Sprintf("maxBudget must be a non-negative number, got %v", v))
		}
		ceiling := int(math.Floor(n))
		f.MaxBudget = &ceiling
	}

	if v, ok := m[FilterMinMatch]; ok && !blank(v) {
		n, err := parseNumber(v)
		if err != nil || n < 0 || n > 100 {
			return Filters{}, errors.NewInvalidFilterFormatError(fmt.Sprintf("minMatch must be between 0 and 100, got %v", v))
		}
		threshold := int(math.Ceil(n))
		f.MinMatch = &threshold
	}

	return f, nil
}

func parseInterests(raw interface{}) ([]catalog.Category, error) {
	var names []string
	switch v := raw.(type) {
	case nil:
	case string:
		names = strings.Split(v, ",")
	case []string:
		names = v
	case []interface{}:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("interests must be strings, got %T", item)
			}
			names = append(names, s)
		}
	default:
		return nil, fmt.Errorf("interests must be a list or a comma separated string, got %T", raw)
	}

	out := []catalog.Category{}
	seen := make(map[catalog.Category]bool)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c, err := catalog.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

func parseNumber(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		cleaned := budgetNoise.Replace(strings.TrimSpace(v))
		if cleaned == "" {
			return 0, fmt.Errorf("empty number")
		}
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return n, nil
	case []interface{}:
		// budget slider
		if len(v) != 1 {
			return 0, fmt.Errorf("expected a single value, got %d", len(v))
		}
		return parseNumber(v[0])
	case []float64:
		if len(v) != 1 {
			return 0, fmt.Errorf("expected a single value, got %d", len(v))
		}
		return v[0], nil
	default:
		return 0, fmt.Errorf("not a number: %T", raw)
	}
}

func stringValue(raw interface{}) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return ""
}

func joinedText(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func blank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
