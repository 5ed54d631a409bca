package document

import "strings"

// Category is the coarse topical bucket used for filtering and diversity quotas.
type Category string

// Known categories. General is the fallback for anything unrecognised.
const (
	Construction   Category = "construction"
	Business       Category = "business"
	Transportation Category = "transportation"
	Governance     Category = "governance"
	General        Category = "general"
	Healthcare     Category = "healthcare"
	Finance        Category = "finance"
	PublicSafety   Category = "public_safety"
	Education      Category = "education"
	Environment    Category = "environment"
	Housing        Category = "housing"
)

var allCategories = []Category{
	Construction, Business, Transportation, Governance, General, Healthcare,
	Finance, PublicSafety, Education, Environment, Housing,
}

// Categories returns the enumerated category set in a stable order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// IsValid reports whether c is one of the enumerated categories.
func (c Category) IsValid() bool {
	for _, k := range allCategories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory matches s case-insensitively against the enumerated set.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", false
	}
	return c, true
}

// NormalizeCategory is ParseCategory with a General fallback.
func NormalizeCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return General
}
