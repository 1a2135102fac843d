package store

import (
	"context"
	"fmt"

	"github.com/erazemk/oprema/internal/model"
)

// CategoryCounts returns per-category totals and a breakdown by status.
// Cables count by quantity, every other item counts once.
func CategoryCounts(ctx context.Context, q Querier) ([]model.CategoryCount, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT category,
		        SUM(units),
		        SUM(CASE WHEN status = 'in_stock' THEN units ELSE 0 END),
		        SUM(CASE WHEN status = 'deployed' THEN units ELSE 0 END),
		        SUM(CASE WHEN status = 'retired' THEN units ELSE 0 END)
		 FROM (
		     SELECT category, status,
		            CASE WHEN `+cableFilter+` THEN quantity ELSE 1 END AS units
		     FROM items
		 )
		 GROUP BY category
		 ORDER BY lower(category)`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting categories: %w", err)
	}
	defer rows.Close()

	var counts []model.CategoryCount
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count, &c.InStock, &c.Deployed, &c.Retired); err != nil {
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
