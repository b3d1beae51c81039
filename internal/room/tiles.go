package room

import (
	"errors"
	"math"
)

const tileWastagePercent = 10

var ErrMissingDimensions = errors.New("all dimensions are required")

type TileInput struct {
	RoomLength float64 `json:"roomLength"`
	RoomWidth  float64 `json:"roomWidth"`
	TileLength float64 `json:"tileLength"`
	TileWidth  float64 `json:"tileWidth"`
	Unit       string  `json:"unit" validate:"omitempty,oneof=cm in ft"`
}

type TileSize struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Unit   string  `json:"unit"`
}

// TileCalculation reports every length in feet.
type TileCalculation struct {
	RoomLength     float64  `json:"roomLength"`
	RoomWidth      float64  `json:"roomWidth"`
	TileSize       TileSize `json:"tileSize"`
	TilesNeeded    int      `json:"tilesNeeded"`
	WastagePercent int      `json:"wastagePercent"`
	WastageCount   int      `json:"wastageCount"`
	TotalTiles     int      `json:"totalTiles"`
	PriceEstimate  float64  `json:"priceEstimate"`
}

func toFeet(v float64, unit string) float64 {
	switch unit {
	case "cm":
		return v / 30.48
	case "in":
		return v / 12
	default:
		return v
	}
}

// CalculateTiles converts every dimension to feet and adds 10% wastage,
// rounding up at each step. An empty unit means feet.
func CalculateTiles(in TileInput) (TileCalculation, error) {
	if in.RoomLength <= 0 || in.RoomWidth <= 0 || in.TileLength <= 0 || in.TileWidth <= 0 {
		return TileCalculation{}, ErrMissingDimensions
	}

	roomLength, roomWidth := toFeet(in.RoomLength, in.Unit), toFeet(in.RoomWidth, in.Unit)
	tileLength, tileWidth := toFeet(in.TileLength, in.Unit), toFeet(in.TileWidth, in.Unit)

	needed := int(math.Ceil(roomLength * roomWidth / (tileLength * tileWidth)))
	wastage := int(math.Ceil(float64(needed) * tileWastagePercent / 100))

	return TileCalculation{
		RoomLength:     roomLength,
		RoomWidth:      roomWidth,
		TileSize:       TileSize{Length: tileLength, Width: tileWidth, Unit: "ft"},
		TilesNeeded:    needed,
		WastagePercent: tileWastagePercent,
		WastageCount:   wastage,
		TotalTiles:     needed + wastage,
	}, nil
}
