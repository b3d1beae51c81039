// Package recommend turns a room description and style/budget preferences
// into a ranked list of catalog products. An LLM proposes and explains picks;
// when it fails or under-delivers, deterministic catalog picks fill the list.
package recommend

import (
	"errors"
	"fmt"

	"github.com/wichananm65/visioneer-backend/internal/config"
	"github.com/wichananm65/visioneer-backend/internal/product"
)

// ErrCatalogUnavailable is the only failure Recommend reports to callers.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// ParseError means the model reply could not be read as recommendations.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse recommendations: %s: %v", e.Reason, e.Err)
	}
	return "parse recommendations: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

type Budget struct {
	Min      float64 `json:"min" validate:"gte=0"`
	Max      float64 `json:"max" validate:"gte=0,gtefield=Min"`
	Currency string  `json:"currency,omitempty"`
}

// Contains reports whether price lies in [Min, Max].
func (b Budget) Contains(price float64) bool {
	return price >= b.Min && price <= b.Max
}

type RoomDescription struct {
	Length            float64  `json:"length" validate:"gte=0"`
	Width             float64  `json:"width" validate:"gte=0"`
	Height            *float64 `json:"height,omitempty" validate:"omitempty,gte=0"`
	WallColors        []string `json:"wallColors"`
	FloorType         string   `json:"floorType,omitempty"`
	Lighting          string   `json:"lighting" validate:"omitempty,oneof=natural artificial mixed"`
	ExistingFurniture []string `json:"existingFurniture,omitempty"`
	StylePreference   []string `json:"stylePreference,omitempty"`
}

type Preferences struct {
	StyleTags           []string `json:"styleTags"`
	ColorPalette        []string `json:"colorPalette,omitempty"`
	MaterialPreferences []string `json:"materialPreferences,omitempty"`
}

// Request is the body of POST /api/recommend.
type Request struct {
	RoomPhotoURL    string           `json:"roomPhotoUrl,omitempty"`
	RoomDescription *RoomDescription `json:"roomDescription,omitempty"`
	Preferences     Preferences      `json:"preferences"`
	Budget          *Budget          `json:"budget,omitempty"`
}

type Recommendation struct {
	Product               product.Product `json:"product"`
	Rank                  int             `json:"rank"`
	Reasoning             string          `json:"reasoning"`
	MatchScore            float64         `json:"matchScore"`
	SuggestedCombinations []string        `json:"suggestedCombinations"`
}

// Policy holds the tunables shared by the normalizer, fallback composer and
// ranker.
type Policy struct {
	PageSize       int
	MinResults     int
	CandidateLimit int
	CatalogLimit   int
	FallbackScore  float64
	DefaultScore   float64
}

const (
	DefaultReasoning = "Recommended based on room analysis"
	maxCombinations  = 2
)

func DefaultPolicy() Policy {
	return Policy{
		PageSize:       16,
		MinResults:     8,
		CandidateLimit: 50,
		CatalogLimit:   product.CatalogSnapshotLimit,
		FallbackScore:  0.7,
		DefaultScore:   0.8,
	}
}

func PolicyFromConfig(c config.RecommendConfig) Policy {
	return Policy{
		PageSize:       c.PageSize,
		MinResults:     c.MinResults,
		CandidateLimit: c.CandidateLimit,
		CatalogLimit:   c.CatalogLimit,
		FallbackScore:  c.FallbackScore,
		DefaultScore:   c.DefaultScore,
	}
}
