package analysis

import (
	"slices"

	"github.com/aluiziolira/go-product-parser/models"
	"github.com/shopspring/decimal"
)

// DealCriteria selects products worth highlighting.
type DealCriteria struct {
	MaxPrice  decimal.Decimal
	MinRating int
	// Limit caps the ranked result; zero or less keeps every match.
	Limit int
}

// DefaultDealCriteria returns: at most 15, four stars or better, top five.
func DefaultDealCriteria() DealCriteria {
	return DealCriteria{
		MaxPrice:  decimal.NewFromInt(15),
		MinRating: 4,
		Limit:     5,
	}
}

// DealSelection is the cheapest-first result of RankDeals.
type DealSelection struct {
	Criteria DealCriteria
	Deals    []*models.Product
	// Matched counts every product that passed the filter, before the cap.
	Matched int
}

// RankDeals keeps in-stock products priced at or below the ceiling with at
// least the minimum rating, ordered by ascending price. Products with equal
// prices keep their input order.
func RankDeals(products []*models.Product, criteria DealCriteria) DealSelection {
	matches := make([]*models.Product, 0)
	for _, p := range products {
		if p == nil || !p.InStock {
			continue
		}
		if p.PriceValue.GreaterThan(criteria.MaxPrice) || p.Rating < criteria.MinRating {
			continue
		}
		matches = append(matches, p)
	}

	slices.SortStableFunc(matches, func(a, b *models.Product) int {
		return a.PriceValue.Cmp(b.PriceValue)
	})

	selection := DealSelection{
		Criteria: criteria,
		Deals:    matches,
		Matched:  len(matches),
	}
	if criteria.Limit > 0 && len(matches) > criteria.Limit {
		selection.Deals = matches[:criteria.Limit]
	}
	return selection
}
