package room

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/wichananm65/visioneer-backend/internal/llm"
	"github.com/wichananm65/visioneer-backend/internal/logger"
)

const (
	analyzeMaxTokens = 2000
	maxImageBytes    = 10 << 20
)

const analyzePrompt = `Analyze this room image in detail. Extract the following information and return it as a JSON object:
- colors: array of hex color codes found in the room (walls, floor, furniture)
- roomShape: shape of the room (rectangular, square, L-shaped, etc.)
- walls: array of wall objects with color (hex), material (if visible), and dimensions (length, width, height in feet, unit: "ft")
- floor: object with type (hardwood, tile, carpet, etc.), color (hex), and material (if visible)
- furnitureDetected: array of furniture items detected (e.g., ["sofa", "coffee table", "lamp"])
- lighting: type of lighting ("natural", "artificial", or "mixed")
- emptySpaces: array of empty space objects with area (in square feet) and location description

Return ONLY valid JSON, no markdown formatting, no code blocks.`

// Analyzer asks the vision model to describe a room photo.
type Analyzer struct {
	client llm.Client
	store  *Store
	http   *http.Client
	log    *logger.Logger
}

// NewAnalyzer builds an Analyzer. Photos under the store's public path are
// read from disk; other URLs are downloaded with httpClient.
func NewAnalyzer(client llm.Client, store *Store, httpClient *http.Client, log *logger.Logger) *Analyzer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Analyzer{client: client, store: store, http: httpClient, log: log.With("service", "RoomAnalyzer")}
}

// Analyze sends the photo to the model and returns its description with
// defaults filled in for anything the model left out.
func (a *Analyzer) Analyze(ctx context.Context, photoURL string) (Analysis, error) {
	image, err := a.dataURL(ctx, photoURL)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to analyze room: %w", err)
	}

	raw, err := a.client.Complete(ctx, llm.Prompt{
		Operation: "analyze_room",
		User:      analyzePrompt,
		MaxTokens: analyzeMaxTokens,
		ImageURL:  image,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to analyze room: %w", err)
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(llm.StripCodeFences(raw)), &parsed); err != nil {
		a.log.Warn("vision reply is not valid JSON", "error", err, "reply_len", len(raw))
		return Analysis{}, fmt.Errorf("failed to analyze room: parse reply: %w", err)
	}
	return parsed.withDefaults(), nil
}

// dataURL inlines the photo as a base64 data URL so the model never has to
// reach this host.
func (a *Analyzer) dataURL(ctx context.Context, photoURL string) (string, error) {
	if strings.HasPrefix(photoURL, "data:") {
		return photoURL, nil
	}

	if a.store != nil && strings.Contains(photoURL, PublicPrefix) {
		data, mime, err := a.store.Open(photoURL)
		if err == nil {
			return encodeDataURL(mime, data), nil
		}
		if !strings.HasPrefix(photoURL, "http") {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch photo: %w", err)
	}
	res, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch photo: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("fetch photo: status %d", res.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("fetch photo: %w", err)
	}
	mime := mediaType(res.Header.Get("Content-Type"))
	if mime == "" {
		mime = "image/jpeg"
	}
	return encodeDataURL(mime, data), nil
}

func encodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
