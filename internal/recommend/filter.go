package recommend

import "github.com/wichananm65/visioneer-backend/internal/product"

// Filter keeps products sharing at least one of styleTags (when any are given)
// and priced inside budget (when set). Catalog order is preserved and the
// input is not modified.
func Filter(products []product.Product, styleTags []string, budget *Budget) []product.Product {
	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		if len(styleTags) > 0 && !p.HasTag(styleTags...) {
			continue
		}
		if budget != nil && !budget.Contains(p.Price) {
			continue
		}
		out = append(out, p)
	}
	return out
}
