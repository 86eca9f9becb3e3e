package parsequestionnaire

import "bizmatch-workers/internal/recommendation"

type Input struct {
	RawForm map[string]interface{} `json:"rawForm"`
}

type Output struct {
	UserProfile recommendation.UserProfile `json:"userProfile"`
	Filters     recommendation.Filters     `json:"filters"`
}
