package category

import "github.com/wichananm65/visioneer-backend/internal/product"

// CategoryItem is the public DTO returned by the category API.
type CategoryItem struct {
	Name  product.Category `json:"name"`
	Count int              `json:"count"`
}
