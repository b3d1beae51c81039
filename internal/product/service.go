package product

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// CatalogSnapshotLimit bounds the in-process scans done by Search and Similar.
const CatalogSnapshotLimit = 1000

var ErrInvalidPagination = errors.New("page must be >= 1 and pageSize between 1 and 100")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) GetByID(ctx context.Context, id string) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	now := s.now().UTC()
	p.ID = ""
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, p Product) (Product, error) {
	p.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ResetProducts replaces all products with the given list (used for dev / seeding).
func (s *Service) ResetProducts(ctx context.Context, products []Product) error {
	return s.repo.Reset(ctx, products)
}

// Snapshot returns up to CatalogSnapshotLimit products, newest first.
func (s *Service) Snapshot(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx, Filter{Limit: CatalogSnapshotLimit})
}

// DimensionBounds constrains each dimension; zero means unbounded.
type DimensionBounds struct {
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

type SearchFilters struct {
	Query         string           `json:"query,omitempty"`
	Category      Category         `json:"category,omitempty" validate:"omitempty,oneof=furniture tiles appliances decor materials paint"`
	MinPrice      *float64         `json:"minPrice,omitempty" validate:"omitempty,gte=0"`
	MaxPrice      *float64         `json:"maxPrice,omitempty" validate:"omitempty,gte=0"`
	StyleTags     []string         `json:"styleTags,omitempty"`
	MinDimensions *DimensionBounds `json:"minDimensions,omitempty"`
	MaxDimensions *DimensionBounds `json:"maxDimensions,omitempty"`
	SortBy        string           `json:"sortBy,omitempty" validate:"omitempty,oneof=price name relevance popularity"`
	SortOrder     string           `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
}

type SearchResult struct {
	Products []Product     `json:"products"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Filters  SearchFilters `json:"filters"`
}

// Search filters the catalog snapshot in process and returns one page.
func (s *Service) Search(ctx context.Context, f SearchFilters, page, pageSize int) (SearchResult, error) {
	if page < 1 || pageSize < 1 || pageSize > 100 {
		return SearchResult{}, ErrInvalidPagination
	}
	all, err := s.Snapshot(ctx)
	if err != nil {
		return SearchResult{}, err
	}

	matched := make([]Product, 0, len(all))
	for _, p := range all {
		if searchMatches(p, f) {
			matched = append(matched, p)
		}
	}
	sortSearchResults(matched, f)

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	return SearchResult{
		Products: matched[start:end],
		Total:    len(matched),
		Page:     page,
		PageSize: pageSize,
		Filters:  f,
	}, nil
}

func searchMatches(p Product, f SearchFilters) bool {
	if f.Query != "" && RelevanceScore(p, f.Query) == 0 {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if len(f.StyleTags) > 0 && !p.HasTag(f.StyleTags...) {
		return false
	}
	if b := f.MinDimensions; b != nil {
		if (b.Length > 0 && p.Dimensions.Length < b.Length) ||
			(b.Width > 0 && p.Dimensions.Width < b.Width) ||
			(b.Height > 0 && p.Dimensions.Height < b.Height) {
			return false
		}
	}
	if b := f.MaxDimensions; b != nil {
		if (b.Length > 0 && p.Dimensions.Length > b.Length) ||
			(b.Width > 0 && p.Dimensions.Width > b.Width) ||
			(b.Height > 0 && p.Dimensions.Height > b.Height) {
			return false
		}
	}
	return true
}

// sortSearchResults orders in place. Relevance defaults to best-first; the
// other keys default to ascending. Unknown or empty keys keep catalog order.
func sortSearchResults(ps []Product, f SearchFilters) {
	var less func(a, b Product) bool
	desc := f.SortOrder == "desc"
	switch f.SortBy {
	case "price":
		less = func(a, b Product) bool { return a.Price < b.Price }
	case "name":
		less = func(a, b Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "relevance":
		if f.Query == "" {
			return
		}
		desc = f.SortOrder != "asc"
		less = func(a, b Product) bool { return RelevanceScore(a, f.Query) < RelevanceScore(b, f.Query) }
	default:
		return
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if desc {
			return less(ps[j], ps[i])
		}
		return less(ps[i], ps[j])
	})
}

// RelevanceScore weighs case-insensitive substring hits: name 10,
// description 5, category 3 and 2 per matching style tag.
func RelevanceScore(p Product, query string) int {
	q := strings.ToLower(query)
	score := 0
	if strings.Contains(strings.ToLower(p.Name), q) {
		score += 10
	}
	if p.Description != "" && strings.Contains(strings.ToLower(p.Description), q) {
		score += 5
	}
	if strings.Contains(strings.ToLower(string(p.Category)), q) {
		score += 3
	}
	for _, tag := range p.StyleTags {
		if strings.Contains(strings.ToLower(tag), q) {
			score += 2
		}
	}
	return score
}

// Similarity scores how interchangeable two products are: 5 for the same
// category, 2 per shared tag and up to 3 for price proximity.
func Similarity(a, b Product) float64 {
	score := 0.0
	if a.Category == b.Category {
		score += 5
	}
	for _, tag := range a.StyleTags {
		if b.HasTag(tag) {
			score += 2
		}
	}
	maxPrice := math.Max(a.Price, b.Price)
	if maxPrice > 0 {
		score += (1 - math.Abs(a.Price-b.Price)/maxPrice) * 3
	}
	return score
}

// Similar returns the products most similar to id. An unknown id yields an
// empty list rather than an error.
func (s *Service) Similar(ctx context.Context, id string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 5
	}
	all, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var (
		target Product
		found  bool
	)
	others := make([]Product, 0, len(all))
	for _, p := range all {
		if p.ID == id {
			target, found = p, true
			continue
		}
		others = append(others, p)
	}
	if !found {
		return []Product{}, nil
	}

	scores := make(map[string]float64, len(others))
	for _, p := range others {
		scores[p.ID] = Similarity(target, p)
	}
	sort.SliceStable(others, func(i, j int) bool {
		return scores[others[i].ID] > scores[others[j].ID]
	})
	if len(others) > limit {
		others = others[:limit]
	}
	return others, nil
}
