package recommend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/wichananm65/visioneer-backend/internal/llm"
	"github.com/wichananm65/visioneer-backend/internal/product"
)

// Recommender asks an external model to pick products for a room and returns
// its raw reply.
type Recommender interface {
	Recommend(ctx context.Context, roomContext string, candidates []product.Product) (string, error)
}

const recommendMaxTokens = 2000

const systemPrompt = `You are an interior design assistant. Choose products from the catalog that suit the room and the customer's preferences.
Reply with a JSON array only. Each element must have:
- productName: the product name exactly as listed in the catalog
- rank: 1 for the best fit
- reasoning: one or two sentences on why it fits this room
- matchScore: a number between 0 and 1
- suggestedCombinations: up to 2 other catalog product names that pair well with it`

// LLMRecommender sends the room context and at most limit candidates to an
// llm.Client in a single call.
type LLMRecommender struct {
	client llm.Client
	limit  int
}

func NewLLMRecommender(client llm.Client, candidateLimit int) *LLMRecommender {
	if candidateLimit <= 0 {
		candidateLimit = DefaultPolicy().CandidateLimit
	}
	return &LLMRecommender{client: client, limit: candidateLimit}
}

type promptProduct struct {
	Name       string             `json:"name"`
	Category   product.Category   `json:"category"`
	Price      float64            `json:"price"`
	StyleTags  []string           `json:"styleTags"`
	Dimensions product.Dimensions `json:"dimensions"`
}

func (r *LLMRecommender) Recommend(ctx context.Context, roomContext string, candidates []product.Product) (string, error) {
	if len(candidates) > r.limit {
		candidates = candidates[:r.limit]
	}
	list := make([]promptProduct, len(candidates))
	for i, p := range candidates {
		list[i] = promptProduct{Name: p.Name, Category: p.Category, Price: p.Price, StyleTags: p.StyleTags, Dimensions: p.Dimensions}
	}
	catalog, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}

	user := roomContext + "\n\nAvailable products:\n" + string(catalog)
	return r.client.Complete(ctx, llm.Prompt{
		Operation: "recommend",
		System:    systemPrompt,
		User:      user,
		MaxTokens: recommendMaxTokens,
	})
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RoomContext renders the request as the text the model sees.
func RoomContext(req Request) string {
	var b strings.Builder
	if d := req.RoomDescription; d != nil {
		fmt.Fprintf(&b, "Room dimensions: %sft x %sft. ", formatNumber(d.Length), formatNumber(d.Width))
		fmt.Fprintf(&b, "Wall colors: %s. ", strings.Join(d.WallColors, ", "))
		fmt.Fprintf(&b, "Lighting: %s. ", d.Lighting)
		style := "none"
		if len(d.StylePreference) > 0 {
			style = strings.Join(d.StylePreference, ", ")
		}
		fmt.Fprintf(&b, "Style preference: %s.", style)
		if d.FloorType != "" {
			fmt.Fprintf(&b, " Floor: %s.", d.FloorType)
		}
		if len(d.ExistingFurniture) > 0 {
			fmt.Fprintf(&b, " Existing furniture: %s.", strings.Join(d.ExistingFurniture, ", "))
		}
	} else {
		b.WriteString("No room description provided.")
	}

	if tags := req.Preferences.StyleTags; len(tags) > 0 {
		fmt.Fprintf(&b, "\nPreferred styles: %s.", strings.Join(tags, ", "))
	}
	if colors := req.Preferences.ColorPalette; len(colors) > 0 {
		fmt.Fprintf(&b, "\nColor palette: %s.", strings.Join(colors, ", "))
	}
	if mats := req.Preferences.MaterialPreferences; len(mats) > 0 {
		fmt.Fprintf(&b, "\nMaterials: %s.", strings.Join(mats, ", "))
	}
	if bud := req.Budget; bud != nil {
		fmt.Fprintf(&b, "\nBudget: %s-%s %s.", formatNumber(bud.Min), formatNumber(bud.Max), bud.Currency)
	}
	return b.String()
}
