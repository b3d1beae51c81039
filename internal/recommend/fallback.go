package recommend

import (
	"fmt"
	"sort"

	"github.com/wichananm65/visioneer-backend/internal/product"
)

// Outcome is the result of Attempt. Degraded is set when Value came from the
// fallback, in which case Err holds the primary failure.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Err      error
}

// Attempt runs primary and, if it fails or panics, returns fallback(err)
// instead. It is the single place where a failing step is swapped for its
// degraded result.
func Attempt[T any](primary func() (T, error), fallback func(error) T) Outcome[T] {
	v, err := runRecovered(primary)
	if err == nil {
		return Outcome[T]{Value: v}
	}
	return Outcome[T]{Value: fallback(err), Degraded: true, Err: err}
}

func runRecovered[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// FillMode tells the fallback composer why it runs.
type FillMode int

const (
	// FillTotal replaces a failed model call or an unreadable reply.
	FillTotal FillMode = iota
	// FillPartial tops up a readable reply that had too few usable picks.
	FillPartial
)

func (m FillMode) reasoning(category product.Category) string {
	if m == FillPartial {
		return fmt.Sprintf("This %s matches your style preferences.", category)
	}
	return fmt.Sprintf("This %s matches your preferences.", category)
}

// ComposeFallback uses DefaultPolicy.
func ComposeFallback(filtered []product.Product, existing []Recommendation, target int, mode FillMode) []Recommendation {
	return DefaultPolicy().ComposeFallback(filtered, existing, target, mode)
}

// ComposeFallback tops up existing with filtered products, in catalog order and
// skipping products already present, until target entries exist. The reasoning
// of added entries depends on mode, not on how many entries already exist. It
// always returns a non-nil slice.
func (p Policy) ComposeFallback(filtered []product.Product, existing []Recommendation, target int, mode FillMode) []Recommendation {
	out := make([]Recommendation, 0, max(target, len(existing)))
	out = append(out, existing...)

	present := make(map[string]bool, len(existing))
	for _, r := range existing {
		present[r.Product.ID] = true
	}
	for _, prod := range filtered {
		if len(out) >= target {
			break
		}
		if present[prod.ID] {
			continue
		}
		present[prod.ID] = true
		out = append(out, Recommendation{
			Product:               prod,
			Rank:                  len(out) + 1,
			Reasoning:             mode.reasoning(prod.Category),
			MatchScore:            p.FallbackScore,
			SuggestedCombinations: []string{},
		})
	}
	return out
}

// Rank uses DefaultPolicy.
func Rank(all []Recommendation, limit int) []Recommendation {
	return DefaultPolicy().Rank(all, limit)
}

// Rank stable-sorts by MatchScore descending, truncates to limit (PageSize when
// limit <= 0) and renumbers ranks 1..N. The input is not modified.
func (p Policy) Rank(all []Recommendation, limit int) []Recommendation {
	if limit <= 0 {
		limit = p.PageSize
	}
	out := make([]Recommendation, len(all))
	copy(out, all)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchScore > out[j].MatchScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
		if out[i].SuggestedCombinations == nil {
			out[i].SuggestedCombinations = []string{}
		}
	}
	return out
}
