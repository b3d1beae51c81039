// Package room turns a room photo into a structured description, stores
// uploaded photos and estimates tile quantities.
package room

import "github.com/wichananm65/visioneer-backend/internal/product"

type Lighting string

const (
	LightingNatural    Lighting = "natural"
	LightingArtificial Lighting = "artificial"
	LightingMixed      Lighting = "mixed"
)

func (l Lighting) Valid() bool {
	switch l {
	case LightingNatural, LightingArtificial, LightingMixed:
		return true
	}
	return false
}

type Wall struct {
	Color      string             `json:"color"`
	Material   string             `json:"material,omitempty"`
	Dimensions product.Dimensions `json:"dimensions"`
}

type Floor struct {
	Type     string `json:"type"`
	Color    string `json:"color,omitempty"`
	Material string `json:"material,omitempty"`
}

type EmptySpace struct {
	Area     float64 `json:"area"`
	Location string  `json:"location"`
}

// Analysis is what the vision model reports about a room.
type Analysis struct {
	Colors            []string     `json:"colors"`
	RoomShape         string       `json:"roomShape"`
	Walls             []Wall       `json:"walls"`
	Floor             Floor        `json:"floor"`
	FurnitureDetected []string     `json:"furnitureDetected"`
	Lighting          Lighting     `json:"lighting"`
	EmptySpaces       []EmptySpace `json:"emptySpaces"`
}

// rawAnalysis mirrors Analysis with pointers so absent fields can be told
// apart from empty ones.
type rawAnalysis struct {
	Colors            []string     `json:"colors"`
	RoomShape         string       `json:"roomShape"`
	Walls             []Wall       `json:"walls"`
	Floor             *Floor       `json:"floor"`
	FurnitureDetected []string     `json:"furnitureDetected"`
	Lighting          Lighting     `json:"lighting"`
	EmptySpaces       []EmptySpace `json:"emptySpaces"`
}

func (r rawAnalysis) withDefaults() Analysis {
	a := Analysis{
		Colors:            r.Colors,
		RoomShape:         r.RoomShape,
		Walls:             r.Walls,
		FurnitureDetected: r.FurnitureDetected,
		Lighting:          r.Lighting,
		EmptySpaces:       r.EmptySpaces,
	}
	if a.Colors == nil {
		a.Colors = []string{}
	}
	if a.RoomShape == "" {
		a.RoomShape = "rectangular"
	}
	if a.Walls == nil {
		a.Walls = []Wall{{Color: "#FFFFFF", Dimensions: product.Dimensions{Unit: "ft"}}}
	}
	if r.Floor != nil {
		a.Floor = *r.Floor
	}
	if a.Floor.Type == "" {
		a.Floor.Type = "unknown"
	}
	if a.FurnitureDetected == nil {
		a.FurnitureDetected = []string{}
	}
	if !a.Lighting.Valid() {
		a.Lighting = LightingMixed
	}
	if a.EmptySpaces == nil {
		a.EmptySpaces = []EmptySpace{}
	}
	return a
}
