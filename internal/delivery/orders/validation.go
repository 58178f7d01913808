package orders

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// FoldDistrict normalises a district name for uniqueness checks.
func FoldDistrict(district string) string {
	return cases.Fold().String(strings.TrimSpace(district))
}

// ValidateOrder checks the structural rules of an order document that
// struct tags cannot express.
func ValidateOrder(o *DeliveryOrder) error {
	if len(o.Sections) == 0 {
		return ErrEmptySections
	}
	seen := make(map[string]int, len(o.Sections))
	for si, s := range o.Sections {
		key := FoldDistrict(s.District)
		if key == "" {
			return fmt.Errorf("section %d: %w", si+1, ErrDistrictRequired)
		}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("section %d and %d: %w", prev+1, si+1, ErrDuplicateDistrict)
		}
		seen[key] = si
		if len(s.Items) == 0 {
			return fmt.Errorf("section %d: %w", si+1, ErrEmptySection)
		}
		for ii, it := range s.Items {
			if !it.Quantity.IsPositive() {
				return fmt.Errorf("section %d item %d: %w", si+1, ii+1, ErrInvalidQuantity)
			}
			if it.Rate.IsNegative() {
				return fmt.Errorf("section %d item %d: %w", si+1, ii+1, ErrInvalidRate)
			}
		}
	}
	return nil
}

// ValidateListRequest checks filter ranges.
func ValidateListRequest(req ListRequest) error {
	if req.FromDate != nil && req.ToDate != nil && *req.FromDate > *req.ToDate {
		return ErrInvalidDateRange
	}
	return nil
}
