package resolvebusinessdetail

import "bizmatch-workers/internal/catalog"

type Input struct {
	Slug string `json:"slug"`
}

type Output struct {
	Business BusinessDetail `json:"business"`
}

// BusinessDetail is a catalog entry plus the slug it was resolved from.
type BusinessDetail struct {
	catalog.BusinessOpportunity
	Slug string `json:"slug"`
}
