package flips

import (
	"github.com/6529-Collections/flipscan/pkg/flips/models"
)

// SelectTargets returns the distinct tokens in sales, in first-seen order,
// capped at max. Sales without a contract or token id are ignored.
func SelectTargets(sales []models.SaleEvent, max int) []models.TokenKey {
	if max <= 0 {
		return nil
	}
	seen := make(map[models.TokenKey]struct{})
	var targets []models.TokenKey
	for _, sale := range sales {
		key := sale.Key()
		if key.Contract == "" || key.TokenID == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		targets = append(targets, key)
		if len(targets) >= max {
			break
		}
	}
	return targets
}
