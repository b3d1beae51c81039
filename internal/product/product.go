package product

import "time"

// Category is the closed set of catalog departments.
type Category string

const (
	CategoryFurniture  Category = "furniture"
	CategoryTiles      Category = "tiles"
	CategoryAppliances Category = "appliances"
	CategoryDecor      Category = "decor"
	CategoryMaterials  Category = "materials"
	CategoryPaint      Category = "paint"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFurniture,
	CategoryTiles,
	CategoryAppliances,
	CategoryDecor,
	CategoryMaterials,
	CategoryPaint,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Dimensions struct {
	Length float64 `json:"length" bson:"length" validate:"omitempty,gt=0,lte=1000"`
	Width  float64 `json:"width" bson:"width" validate:"omitempty,gt=0,lte=1000"`
	Height float64 `json:"height" bson:"height" validate:"omitempty,gt=0,lte=1000"`
	Unit   string  `json:"unit" bson:"unit" validate:"omitempty,oneof=cm in ft"`
}

type StoreLink struct {
	StoreName string   `json:"storeName" bson:"storeName" validate:"required"`
	URL       string   `json:"url" bson:"url" validate:"required,url"`
	Price     *float64 `json:"price,omitempty" bson:"price,omitempty" validate:"omitempty,gte=0"`
}

// Product is a catalog item. The JSON shape is the one the front-end consumes;
// bson tags match the `products` collection.
type Product struct {
	ID          string      `json:"id" bson:"id"`
	Name        string      `json:"name" bson:"name" validate:"required,max=200"`
	Price       float64     `json:"price" bson:"price" validate:"gte=0,lte=1000000"`
	Category    Category    `json:"category" bson:"category" validate:"required,oneof=furniture tiles appliances decor materials paint"`
	StyleTags   []string    `json:"styleTags" bson:"styleTags"`
	Dimensions  Dimensions  `json:"dimensions" bson:"dimensions"`
	Images      []string    `json:"images" bson:"images" validate:"dive,uri"`
	Model3DURL  string      `json:"model3DUrl" bson:"model3DUrl" validate:"omitempty,uri"`
	StoreLinks  []StoreLink `json:"storeLinks" bson:"storeLinks" validate:"dive"`
	Description string      `json:"description,omitempty" bson:"description,omitempty" validate:"max=1000"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// HasTag reports whether p carries at least one of tags.
func (p Product) HasTag(tags ...string) bool {
	for _, want := range tags {
		for _, have := range p.StyleTags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Filter narrows List. Zero values mean "no constraint"; Limit 0 means DefaultLimit.
type Filter struct {
	Category  Category
	StyleTags []string
	Search    string
	Limit     int
	Offset    int
}

const DefaultLimit = 50

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

func (f Filter) offset() int {
	if f.Offset < 0 {
		return 0
	}
	return f.Offset
}

func ptrFloat(f float64) *float64 { return &f }

// SampleProducts is the starter catalog used by the seed binary and the dev
// reset endpoint. Newer items come first so creation-date order matches the
// slice order.
func SampleProducts(now time.Time) []Product {
	items := []Product{
		{
			Name:        "Modern Sofa",
			Price:       899.99,
			Category:    CategoryFurniture,
			StyleTags:   []string{"modern", "minimal"},
			Dimensions:  Dimensions{Length: 84, Width: 36, Height: 34, Unit: "in"},
			Images:      []string{"https://via.placeholder.com/400x300?text=Modern+Sofa"},
			StoreLinks:  []StoreLink{{StoreName: "Furniture Store", URL: "https://example.com", Price: ptrFloat(899.99)}},
			Description: "A comfortable modern sofa",
		},
		{
			Name:        "Rustic Coffee Table",
			Price:       299.99,
			Category:    CategoryFurniture,
			StyleTags:   []string{"rustic", "wood"},
			Dimensions:  Dimensions{Length: 48, Width: 24, Height: 18, Unit: "in"},
			Images:      []string{"https://via.placeholder.com/400x300?text=Coffee+Table"},
			StoreLinks:  []StoreLink{{StoreName: "Furniture Store", URL: "https://example.com", Price: ptrFloat(299.99)}},
			Description: "Beautiful rustic coffee table",
		},
		{
			Name:        "Ceramic Floor Tiles",
			Price:       4.99,
			Category:    CategoryTiles,
			StyleTags:   []string{"modern", "ceramic"},
			Dimensions:  Dimensions{Length: 12, Width: 12, Height: 0.5, Unit: "in"},
			Images:      []string{"https://via.placeholder.com/400x300?text=Ceramic+Tiles"},
			StoreLinks:  []StoreLink{{StoreName: "Tile Store", URL: "https://example.com", Price: ptrFloat(4.99)}},
			Description: "High-quality ceramic floor tiles",
		},
		{
			Name:        "Minimalist Chair",
			Price:       199.99,
			Category:    CategoryFurniture,
			StyleTags:   []string{"minimal", "modern"},
			Dimensions:  Dimensions{Length: 24, Width: 24, Height: 32, Unit: "in"},
			Images:      []string{"https://via.placeholder.com/400x300?text=Minimalist+Chair"},
			StoreLinks:  []StoreLink{{StoreName: "Furniture Store", URL: "https://example.com", Price: ptrFloat(199.99)}},
			Description: "Elegant minimalist chair",
		},
		{
			Name:        "Wooden Bookshelf",
			Price:       449.99,
			Category:    CategoryFurniture,
			StyleTags:   []string{"rustic", "wood", "traditional"},
			Dimensions:  Dimensions{Length: 36, Width: 12, Height: 72, Unit: "in"},
			Images:      []string{"https://via.placeholder.com/400x300?text=Bookshelf"},
			StoreLinks:  []StoreLink{{StoreName: "Furniture Store", URL: "https://example.com", Price: ptrFloat(449.99)}},
			Description: "Classic wooden bookshelf",
		},
		{
			Name:        "Marble Tiles",
			Price:       12.99,
			Category:    CategoryTiles,
			StyleTags:   []string{"luxury", "marble"},
			Dimensions:  Dimensions{Length: 24, Width: 24, Height: 0.75, Unit: "in"},
			Images:      []string{"https://via.placeholder.com/400x300?text=Marble+Tiles"},
			StoreLinks:  []StoreLink{{StoreName: "Tile Store", URL: "https://example.com", Price: ptrFloat(12.99)}},
			Description: "Premium marble floor tiles",
		},
		{
			Name:        "Decorative Vase",
			Price:       49.99,
			Category:    CategoryDecor,
			StyleTags:   []string{"modern", "ceramic"},
			Dimensions:  Dimensions{Length: 8, Width: 8, Height: 16, Unit: "in"},
			Images:      []string{"https://via.placeholder.com/400x300?text=Decorative+Vase"},
			StoreLinks:  []StoreLink{{StoreName: "Decor Store", URL: "https://example.com", Price: ptrFloat(49.99)}},
			Description: "Stylish decorative vase",
		},
		{
			Name:        "Wall Art Print",
			Price:       79.99,
			Category:    CategoryDecor,
			StyleTags:   []string{"modern", "minimal"},
			Dimensions:  Dimensions{Length: 24, Width: 18, Height: 1, Unit: "in"},
			Images:      []string{"https://via.placeholder.com/400x300?text=Wall+Art"},
			StoreLinks:  []StoreLink{{StoreName: "Decor Store", URL: "https://example.com", Price: ptrFloat(79.99)}},
			Description: "Modern wall art print",
		},
	}
	for i := range items {
		ts := now.Add(-time.Duration(i) * time.Minute).UTC()
		items[i].CreatedAt = ts
		items[i].UpdatedAt = ts
	}
	return items
}
