package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"bizmatch-workers/internal/common/errors"
)

const (
	selectBusinessesQuery = `
		SELECT title, description, startup_cost, profit_margin, time_to_profit,
		       risk_level, key_requirements, expert_advice,
		       online_friendly, low_risk, urban_excluded
		FROM business_opportunities
		ORDER BY position`

	selectCategoriesQuery = `
		SELECT category, title
		FROM business_categories
		ORDER BY category, position`
)

// LoadFromDB reads the catalog tables once and runs the same validation as a
// file-based catalog.
func LoadFromDB(ctx context.Context, db *sql.DB) (*Catalog, error) {
	doc := Document{Version: "postgres", Categories: map[string][]string{}}

	rows, err := db.QueryContext(ctx, selectBusinessesQuery)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("catalog_businesses", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b BusinessOpportunity
		var risk string
		var requirements []byte
		if err := rows.Scan(
			&b.Title, &b.Description, &b.StartupCost, &b.ProfitMargin, &b.TimeToProfit,
			&risk, &requirements, &b.ExpertAdvice,
			&b.OnlineFriendly, &b.LowRisk, &b.UrbanExcluded,
		); err != nil {
			return nil, errors.NewQueryExecutionFailedError("catalog_businesses", err)
		}
		b.RiskLevel = RiskLevel(risk)
		b.KeyRequirements = []string{}
		if len(requirements) > 0 {
			if err := json.Unmarshal(requirements, &b.KeyRequirements); err != nil {
				return nil, errors.NewCatalogInvalidError([]string{fmt.Sprintf("%s: key_requirements: %v", b.Title, err)})
			}
		}
		doc.Businesses = append(doc.Businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("catalog_businesses", err)
	}

	catRows, err := db.QueryContext(ctx, selectCategoriesQuery)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("catalog_categories", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var category, title string
		if err := catRows.Scan(&category, &title); err != nil {
			return nil, errors.NewQueryExecutionFailedError("catalog_categories", err)
		}
		doc.Categories[category] = append(doc.Categories[category], title)
	}
	if err := catRows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("catalog_categories", err)
	}

	// Categories with no rows still exist; make sure every known one is present.
	for _, c := range Categories {
		if _, ok := doc.Categories[string(c)]; !ok {
			doc.Categories[string(c)] = []string{}
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode catalog document: %w", err)
	}
	return Parse(data)
}
