package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleService(t *testing.T) (*Service, []Product) {
	t.Helper()
	seed := SampleProducts(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	for i := range seed {
		seed[i].ID = seed[i].Name
	}
	return NewService(NewInMemoryRepository(seed)), seed
}

func names(ps []Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestRelevanceScore(t *testing.T) {
	p := Product{Name: "Modern Sofa", Description: "A comfortable modern sofa", Category: CategoryFurniture, StyleTags: []string{"modern", "minimal"}}

	assert.Equal(t, 10+5+2, RelevanceScore(p, "MODERN"))
	assert.Equal(t, 3, RelevanceScore(p, "furn"))
	assert.Equal(t, 0, RelevanceScore(p, "marble"))
}

func TestSimilarity(t *testing.T) {
	a := Product{Category: CategoryFurniture, StyleTags: []string{"modern", "minimal"}, Price: 100}
	b := Product{Category: CategoryFurniture, StyleTags: []string{"modern"}, Price: 50}

	assert.InDelta(t, 5+2+1.5, Similarity(a, b), 1e-9)
	assert.InDelta(t, 0, Similarity(Product{Category: CategoryDecor}, Product{Category: CategoryTiles}), 1e-9)
}

func TestSearch_FiltersAndSortsByPrice(t *testing.T) {
	svc, _ := sampleService(t)
	maxPrice := 500.0

	res, err := svc.Search(context.Background(), SearchFilters{
		Category:  CategoryFurniture,
		MaxPrice:  &maxPrice,
		SortBy:    "price",
		SortOrder: "desc",
	}, 1, 20)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"Wooden Bookshelf", "Rustic Coffee Table", "Minimalist Chair"}, names(res.Products))
}

func TestSearch_QueryAndRelevance(t *testing.T) {
	svc, _ := sampleService(t)

	res, err := svc.Search(context.Background(), SearchFilters{Query: "modern", SortBy: "relevance"}, 1, 20)
	require.NoError(t, err)

	require.NotEmpty(t, res.Products)
	assert.Equal(t, "Modern Sofa", res.Products[0].Name)
	for _, p := range res.Products {
		assert.Positive(t, RelevanceScore(p, "modern"), p.Name)
	}
}

func TestSearch_DimensionBoundsIgnoreZero(t *testing.T) {
	svc, _ := sampleService(t)

	res, err := svc.Search(context.Background(), SearchFilters{MinDimensions: &DimensionBounds{Height: 60}}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wooden Bookshelf"}, names(res.Products))
}

func TestSearch_Pagination(t *testing.T) {
	svc, _ := sampleService(t)

	res, err := svc.Search(context.Background(), SearchFilters{}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Total)
	assert.Len(t, res.Products, 3)

	res, err = svc.Search(context.Background(), SearchFilters{}, 9, 3)
	require.NoError(t, err)
	assert.Empty(t, res.Products)

	_, err = svc.Search(context.Background(), SearchFilters{}, 0, 3)
	assert.True(t, errors.Is(err, ErrInvalidPagination))
	_, err = svc.Search(context.Background(), SearchFilters{}, 1, 101)
	assert.True(t, errors.Is(err, ErrInvalidPagination))
}

func TestSimilar(t *testing.T) {
	svc, _ := sampleService(t)

	got, err := svc.Similar(context.Background(), "Modern Sofa", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Minimalist Chair", got[0].Name)
	for _, p := range got {
		assert.NotEqual(t, "Modern Sofa", p.Name)
	}

	none, err := svc.Similar(context.Background(), "nope", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	fixed := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	p, err := svc.Create(context.Background(), Product{ID: "client-chosen", Name: "Lamp", Category: CategoryDecor})
	require.NoError(t, err)
	assert.NotEqual(t, "client-chosen", p.ID)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, fixed, p.CreatedAt)
	assert.Equal(t, fixed, p.UpdatedAt)
}

func TestInMemoryList_OrderAndFilters(t *testing.T) {
	_, seed := sampleService(t)
	repo := NewInMemoryRepository(seed)

	all, err := repo.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, names(seed), names(all), "newest first")

	tagged, err := repo.List(context.Background(), Filter{StyleTags: []string{"marble", "rustic"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rustic Coffee Table", "Wooden Bookshelf", "Marble Tiles"}, names(tagged))

	search, err := repo.List(context.Background(), Filter{Search: "TILES"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ceramic Floor Tiles", "Marble Tiles"}, names(search))

	page, err := repo.List(context.Background(), Filter{Limit: 2, Offset: 7})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wall Art Print"}, names(page))
}
