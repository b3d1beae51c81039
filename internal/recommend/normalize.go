package recommend

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/wichananm65/visioneer-backend/internal/llm"
	"github.com/wichananm65/visioneer-backend/internal/product"
)

type shapeKind int

const (
	shapeArray  shapeKind = iota + 1 // [ {...}, ... ]
	shapeObject                      // { "recommendations": [ ... ] }
)

// responseShape is the model reply after the one and only shape check. Items
// stay raw so a single malformed entry does not sink the others.
type responseShape struct {
	kind  shapeKind
	items []json.RawMessage
}

// rawRecommendation keeps every optional field raw. A field of the wrong type
// falls back to its default instead of discarding the entry.
type rawRecommendation struct {
	ProductName           json.RawMessage `json:"productName"`
	Rank                  json.RawMessage `json:"rank"`
	Reasoning             json.RawMessage `json:"reasoning"`
	MatchScore            json.RawMessage `json:"matchScore"`
	SuggestedCombinations json.RawMessage `json:"suggestedCombinations"`
}

func stringField(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// numberField accepts a JSON number or a string holding one. null counts as
// absent.
func numberField(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		s, ok := stringField(raw)
		if !ok {
			return 0, false
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// stringsField keeps the string elements of a JSON array and ignores the rest.
func stringsField(raw json.RawMessage) []string {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := stringField(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func parseShape(raw string) (responseShape, error) {
	body := []byte(llm.StripCodeFences(raw))
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return responseShape{}, &ParseError{Reason: "empty reply"}
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return responseShape{}, &ParseError{Reason: "invalid JSON array", Err: err}
		}
		return responseShape{kind: shapeArray, items: items}, nil
	case '{':
		var obj struct {
			Recommendations *[]json.RawMessage `json:"recommendations"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return responseShape{}, &ParseError{Reason: "invalid JSON object", Err: err}
		}
		if obj.Recommendations == nil {
			return responseShape{}, &ParseError{Reason: `object has no "recommendations" array`}
		}
		return responseShape{kind: shapeObject, items: *obj.Recommendations}, nil
	default:
		return responseShape{}, &ParseError{Reason: "reply is not JSON"}
	}
}

// nameIndex resolves product names case-insensitively. The first product with
// a given name wins.
type nameIndex map[string]product.Product

func indexByName(ps []product.Product) nameIndex {
	idx := make(nameIndex, len(ps))
	for _, p := range ps {
		key := strings.ToLower(p.Name)
		if _, ok := idx[key]; !ok {
			idx[key] = p
		}
	}
	return idx
}

func (n nameIndex) lookup(name string) (product.Product, bool) {
	p, ok := n[strings.ToLower(name)]
	return p, ok
}

// Normalize reads a model reply into recommendations using DefaultPolicy.
func Normalize(raw string, candidates, catalog []product.Product) ([]Recommendation, error) {
	return DefaultPolicy().Normalize(raw, candidates, catalog)
}

// Normalize reads a model reply into recommendations. Primary names resolve
// against candidates and combination names against catalog; names that do not
// resolve are dropped. Only an unreadable reply is an error.
func (p Policy) Normalize(raw string, candidates, catalog []product.Product) ([]Recommendation, error) {
	shape, err := parseShape(raw)
	if err != nil {
		return nil, err
	}

	primary := indexByName(candidates)
	all := indexByName(catalog)
	seen := make(map[string]bool, len(shape.items))
	out := make([]Recommendation, 0, len(shape.items))

	for _, item := range shape.items {
		var r rawRecommendation
		if err := json.Unmarshal(item, &r); err != nil {
			continue
		}
		name, ok := stringField(r.ProductName)
		if !ok {
			continue
		}
		prod, ok := primary.lookup(name)
		if !ok || seen[prod.ID] {
			continue
		}
		seen[prod.ID] = true

		rec := Recommendation{
			Product:               prod,
			Rank:                  len(out) + 1,
			Reasoning:             DefaultReasoning,
			MatchScore:            p.DefaultScore,
			SuggestedCombinations: resolveCombinations(stringsField(r.SuggestedCombinations), prod, all),
		}
		if rank, ok := numberField(r.Rank); ok && rank >= 1 && rank == math.Trunc(rank) {
			rec.Rank = int(rank)
		}
		if reasoning, ok := stringField(r.Reasoning); ok && strings.TrimSpace(reasoning) != "" {
			rec.Reasoning = strings.TrimSpace(reasoning)
		}
		if score, ok := numberField(r.MatchScore); ok {
			rec.MatchScore = clampScore(score)
		}
		out = append(out, rec)
	}
	return out, nil
}

func resolveCombinations(names []string, self product.Product, catalog nameIndex) []string {
	out := make([]string, 0, maxCombinations)
	for _, name := range names {
		if len(out) == maxCombinations {
			break
		}
		p, ok := catalog.lookup(name)
		if !ok || p.ID == self.ID || contains(out, p.Name) {
			continue
		}
		out = append(out, p.Name)
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
