package generaterecommendations

import (
	"time"

	"bizmatch-workers/internal/recommendation"
)

type Input struct {
	UserProfile recommendation.UserProfile `json:"userProfile"`
	Filters     *recommendation.Filters    `json:"filters,omitempty"`
	Limit       *int                       `json:"limit,omitempty"`
}

type Output struct {
	Recommendations []recommendation.Recommendation `json:"recommendations"`
	// TotalCount is the number of matches before the limit was applied.
	TotalCount  int       `json:"totalCount"`
	GeneratedAt time.Time `json:"generatedAt"`
	RequestID   string    `json:"requestId"`
	CacheHit    bool      `json:"cacheHit"`
}
