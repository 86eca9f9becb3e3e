package recommendation

import (
	"fmt"
	"strings"

	"bizmatch-workers/internal/catalog"
)

// Location is the user's preferred operating environment. The zero value means
// no preference and skips the location axis.
type Location string

const (
	LocationUnset      Location = ""
	LocationUrban      Location = "Urban"
	LocationSuburban   Location = "Suburban"
	LocationRural      Location = "Rural"
	LocationOnlineOnly Location = "Online Only"
)

var locations = []Location{LocationUrban, LocationSuburban, LocationRural, LocationOnlineOnly}

// ParseLocation accepts the questionnaire values in any case, with or without
// the space in "Online Only".
func ParseLocation(s string) (Location, error) {
	key := normalizeKey(s)
	if key == "" {
		return LocationUnset, nil
	}
	for _, l := range locations {
		if normalizeKey(string(l)) == key {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown location %q", s)
}

// Experience is the user's self-reported business experience. The zero value
// means unanswered and skips the experience axis.
type Experience string

const (
	ExperienceUnset       Experience = ""
	ExperienceNone        Experience = "none"
	ExperienceSome        Experience = "some"
	ExperienceModerate    Experience = "moderate"
	ExperienceExperienced Experience = "experienced"
)

var experienceLevels = map[Experience]int{
	ExperienceNone:        0,
	ExperienceSome:        1,
	ExperienceModerate:    2,
	ExperienceExperienced: 3,
}

func ParseExperience(s string) (Experience, error) {
	key := normalizeKey(s)
	if key == "" {
		return ExperienceUnset, nil
	}
	e := Experience(key)
	if _, ok := experienceLevels[e]; !ok {
		return "", fmt.Errorf("unknown experience level %q", s)
	}
	return e, nil
}

// Level maps the experience onto 0 (none) through 3 (experienced).
func (e Experience) Level() int {
	return experienceLevels[e]
}

func normalizeKey(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

// UserProfile holds one set of questionnaire answers. Skills and Goals are
// carried for display and do not affect scoring.
type UserProfile struct {
	Interests  []catalog.Category `json:"interests"`
	Skills     string             `json:"skills,omitempty"`
	Goals      string             `json:"goals,omitempty"`
	Budget     float64            `json:"budget"`
	Location   Location           `json:"location,omitempty"`
	Experience Experience         `json:"experience,omitempty"`
}

// Validate reports enum values that did not come through the parse functions.
func (p UserProfile) Validate() error {
	for _, c := range p.Interests {
		if _, err := catalog.ParseCategory(string(c)); err != nil {
			return err
		}
	}
	if p.Budget < 0 {
		return fmt.Errorf("budget must not be negative, got %v", p.Budget)
	}
	if p.Location != LocationUnset {
		if _, err := ParseLocation(string(p.Location)); err != nil {
			return err
		}
	}
	if p.Experience != ExperienceUnset {
		if _, ok := experienceLevels[p.Experience]; !ok {
			return fmt.Errorf("unknown experience level %q", p.Experience)
		}
	}
	return nil
}

// Filters narrows a ranked list after scoring. Nil fields are no-ops.
type Filters struct {
	Category  *catalog.Category `json:"category,omitempty"`
	MaxBudget *int              `json:"maxBudget,omitempty"`
	MinMatch  *int              `json:"minMatch,omitempty"`
}

func (f Filters) IsEmpty() bool {
	return f.Category == nil && f.MaxBudget == nil && f.MinMatch == nil
}
