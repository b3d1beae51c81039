package recommend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/visioneer-backend/internal/product"
)

func item(id, name string, cat product.Category, price float64, tags ...string) product.Product {
	return product.Product{ID: id, Name: name, Category: cat, Price: price, StyleTags: tags}
}

func catalogOf(n int) []product.Product {
	out := make([]product.Product, n)
	for i := range out {
		cat := product.CategoryFurniture
		if i%3 == 1 {
			cat = product.CategoryDecor
		}
		out[i] = item(fmt.Sprintf("p%02d", i+1), fmt.Sprintf("Item %02d", i+1), cat, float64(10*(i+1)), "modern")
	}
	return out
}

func ids(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Product.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	catalog := []product.Product{
		item("a", "Modern Sofa", product.CategoryFurniture, 899.99, "modern", "minimal"),
		item("b", "Rustic Table", product.CategoryFurniture, 299.99, "rustic", "wood"),
		item("c", "Marble Tiles", product.CategoryTiles, 12.99, "luxury"),
	}

	t.Run("no constraints keeps everything", func(t *testing.T) {
		assert.Equal(t, catalog, Filter(catalog, nil, nil))
		assert.Equal(t, catalog, Filter(catalog, []string{}, nil))
	})

	t.Run("style tags are OR-ed", func(t *testing.T) {
		got := Filter(catalog, []string{"wood", "luxury"}, nil)
		assert.Equal(t, []product.Product{catalog[1], catalog[2]}, got)
	})

	t.Run("budget is inclusive on both ends", func(t *testing.T) {
		got := Filter(catalog, nil, &Budget{Min: 12.99, Max: 299.99})
		assert.Equal(t, []product.Product{catalog[1], catalog[2]}, got)
	})

	t.Run("commutative and idempotent", func(t *testing.T) {
		tags := []string{"modern", "rustic"}
		b := &Budget{Min: 100, Max: 500}
		once := Filter(catalog, tags, b)
		assert.Equal(t, once, Filter(once, tags, b))
		assert.Equal(t, once, Filter(Filter(catalog, nil, b), tags, nil))
		assert.Equal(t, once, Filter(Filter(catalog, tags, nil), nil, b))
	})
}

func TestNormalize_FencedArrayCaseInsensitive(t *testing.T) {
	catalog := []product.Product{item("sofa", "Modern Sofa", product.CategoryFurniture, 899.99, "modern")}
	raw := "```json\n[{\"productName\":\"modern sofa\",\"rank\":1,\"reasoning\":\"fits style\",\"matchScore\":0.95}]\n```"

	recs, err := Normalize(raw, catalog, catalog)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "sofa", recs[0].Product.ID)
	assert.Equal(t, 0.95, recs[0].MatchScore)
	assert.Equal(t, "fits style", recs[0].Reasoning)
	assert.Equal(t, 1, recs[0].Rank)
}

func TestNormalize_ObjectShapeAndDefaults(t *testing.T) {
	catalog := catalogOf(3)
	raw := `{"recommendations":[{"productName":"Item 02"},{"productName":"ITEM 03","reasoning":"   "}]}`

	recs, err := Normalize(raw, catalog, catalog)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for i, r := range recs {
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, 0.8, r.MatchScore)
		assert.Equal(t, DefaultReasoning, r.Reasoning)
		assert.Empty(t, r.SuggestedCombinations)
	}
}

func TestNormalize_DropsUnresolvableAndDuplicates(t *testing.T) {
	catalog := catalogOf(3)
	raw := `[
		{"productName":"Item 01","matchScore":0.9},
		{"productName":"Nonexistent Lamp","matchScore":0.99},
		{"productName":"item 01","matchScore":0.5},
		{"productName":"Item 02","matchScore":"high"},
		{"productName":"Item 03","matchScore":1.7}
	]`

	recs, err := Normalize(raw, catalog, catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"p01", "p02", "p03"}, ids(recs))
	assert.Equal(t, 0.8, recs[1].MatchScore, "unreadable score falls back to the default")
	assert.Equal(t, 1.0, recs[2].MatchScore, "scores are clamped into [0,1]")
}

func TestNormalize_LooselyTypedFieldsKeepEntry(t *testing.T) {
	catalog := catalogOf(4)
	raw := `[
		{"productName":"Item 01","matchScore":"0.9"},
		{"productName":"Item 02","rank":"1","reasoning":42},
		{"productName":"Item 03","rank":2.5,"matchScore":null,"suggestedCombinations":["Item 04",7]},
		{"productName":12,"matchScore":0.99}
	]`

	recs, err := Normalize(raw, catalog, catalog)
	require.NoError(t, err)
	require.Equal(t, []string{"p01", "p02", "p03"}, ids(recs))

	assert.Equal(t, 0.9, recs[0].MatchScore)
	assert.Equal(t, 1, recs[0].Rank)

	assert.Equal(t, 1, recs[1].Rank)
	assert.Equal(t, 0.8, recs[1].MatchScore)
	assert.Equal(t, DefaultReasoning, recs[1].Reasoning)

	assert.Equal(t, 3, recs[2].Rank, "fractional rank falls back to position")
	assert.Equal(t, 0.8, recs[2].MatchScore)
	assert.Equal(t, []string{"Item 04"}, recs[2].SuggestedCombinations)
}

func TestNormalize_NameMatchIsExactIgnoringCase(t *testing.T) {
	catalog := catalogOf(2)
	raw := `[{"productName":" Item 01"},{"productName":"item 02 "},{"productName":"ITEM 02"}]`

	recs, err := Normalize(raw, catalog, catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"p02"}, ids(recs))
}

func TestNormalize_PrimaryUsesCandidatesCombinationsUseCatalog(t *testing.T) {
	catalog := catalogOf(5)
	candidates := catalog[:2]
	raw := `[
		{"productName":"Item 05"},
		{"productName":"Item 01","suggestedCombinations":["item 04","Ghost Chair","Item 01","Item 05","Item 03"]}
	]`

	recs, err := Normalize(raw, candidates, catalog)
	require.NoError(t, err)
	require.Len(t, recs, 1, "primary names outside the candidate set are dropped")
	assert.Equal(t, []string{"Item 04", "Item 05"}, recs[0].SuggestedCombinations)
}

func TestNormalize_ParseErrors(t *testing.T) {
	catalog := catalogOf(1)
	for name, raw := range map[string]string{
		"prose":            "Sure! Here are some ideas for your room.",
		"broken json":      "```json\n[{\"productName\": \"Item 01\"\n```",
		"missing field":    `{"items":[]}`,
		"empty":            "   ",
		"wrong field type": `{"recommendations":"Item 01"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(raw, catalog, catalog)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestParseShape_Kinds(t *testing.T) {
	s, err := parseShape(`[{"productName":"a"}]`)
	require.NoError(t, err)
	assert.Equal(t, shapeArray, s.kind)

	s, err = parseShape("```\n{\"recommendations\":[]}\n```")
	require.NoError(t, err)
	assert.Equal(t, shapeObject, s.kind)
	assert.Empty(t, s.items)
}

func TestComposeFallback_Total(t *testing.T) {
	filtered := catalogOf(20)

	recs := ComposeFallback(filtered, nil, 16, FillTotal)
	require.Len(t, recs, 16)
	for i, r := range recs {
		assert.Equal(t, filtered[i].ID, r.Product.ID, "catalog order")
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, 0.7, r.MatchScore)
		assert.Equal(t, fmt.Sprintf("This %s matches your preferences.", filtered[i].Category), r.Reasoning)
		assert.NotNil(t, r.SuggestedCombinations)
		assert.Empty(t, r.SuggestedCombinations)
	}
}

func TestComposeFallback_PartialSkipsPresent(t *testing.T) {
	filtered := catalogOf(6)
	existing := []Recommendation{
		{Product: filtered[1], Rank: 1, MatchScore: 0.9, Reasoning: "ai"},
		{Product: filtered[4], Rank: 2, MatchScore: 0.85, Reasoning: "ai"},
	}

	recs := ComposeFallback(filtered, existing, 5, FillPartial)
	assert.Equal(t, []string{"p02", "p05", "p01", "p03", "p04"}, ids(recs))
	assert.Equal(t, "ai", recs[0].Reasoning)
	assert.Equal(t, "This furniture matches your style preferences.", recs[2].Reasoning)
	assert.Equal(t, 0.7, recs[3].MatchScore)
}

func TestComposeFallback_PartialWithNothingExisting(t *testing.T) {
	filtered := catalogOf(3)

	recs := ComposeFallback(filtered, nil, 16, FillPartial)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, fmt.Sprintf("This %s matches your style preferences.", r.Product.Category), r.Reasoning)
		assert.Equal(t, 0.7, r.MatchScore)
	}
}

func TestComposeFallback_EmptyCatalog(t *testing.T) {
	recs := ComposeFallback(nil, nil, 16, FillTotal)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRank_StableSortTruncateRenumber(t *testing.T) {
	in := make([]Recommendation, 0, 20)
	for i, p := range catalogOf(20) {
		score := 0.7
		if i == 5 {
			score = 0.9
		}
		in = append(in, Recommendation{Product: p, Rank: 99, MatchScore: score})
	}

	out := Rank(in, 16)
	require.Len(t, out, 16)
	assert.Equal(t, "p06", out[0].Product.ID)
	assert.Equal(t, "p01", out[1].Product.ID, "ties keep prior order")
	assert.Equal(t, "p02", out[2].Product.ID)
	for i, r := range out {
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, 99, in[0].Rank, "input untouched")
}

func TestAttempt(t *testing.T) {
	ok := Attempt(func() (int, error) { return 1, nil }, func(error) int { return -1 })
	assert.Equal(t, Outcome[int]{Value: 1}, ok)

	boom := errors.New("boom")
	failed := Attempt(func() (int, error) { return 0, boom }, func(err error) int {
		assert.Same(t, boom, err)
		return -1
	})
	assert.True(t, failed.Degraded)
	assert.Equal(t, -1, failed.Value)
	assert.ErrorIs(t, failed.Err, boom)

	panicked := Attempt(func() (int, error) { panic("nil map") }, func(error) int { return -2 })
	assert.True(t, panicked.Degraded)
	assert.Equal(t, -2, panicked.Value)
	assert.ErrorContains(t, panicked.Err, "nil map")
}

func TestRoomContext(t *testing.T) {
	assert.Equal(t, "No room description provided.", RoomContext(Request{}))

	got := RoomContext(Request{
		RoomDescription: &RoomDescription{Length: 12.5, Width: 10, WallColors: []string{"white", "beige"}, Lighting: "natural"},
		Preferences:     Preferences{StyleTags: []string{"modern"}},
		Budget:          &Budget{Min: 100, Max: 200, Currency: "USD"},
	})
	assert.Contains(t, got, "Room dimensions: 12.5ft x 10ft. Wall colors: white, beige. Lighting: natural. Style preference: none.")
	assert.Contains(t, got, "Preferred styles: modern.")
	assert.Contains(t, got, "Budget: 100-200 USD.")
}
