// Package scraper extracts recipes from web pages. schema.org/Recipe JSON-LD is
// preferred; the page heading and meta description fill whatever it leaves empty.
package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"mealminder/internal/recipe"
)

// ErrNoRecipe is returned when a page has neither recipe markup nor a heading.
var ErrNoRecipe = errors.New("no recipe found on page")

// page holds the parts of a document the extractor looks at.
type page struct {
	jsonLD      []string
	heading     string
	description string
	ogImage     string
}

// Extract parses an HTML document and returns the recipe draft it describes.
func Extract(r io.Reader) (recipe.Draft, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return recipe.Draft{}, fmt.Errorf("parse html: %w", err)
	}

	p := &page{}
	p.walk(doc)

	raw := map[string]any{}
	for _, block := range p.jsonLD {
		if node := findRecipe(decodeJSON(block)); node != nil {
			raw = fromSchema(node)
			break
		}
	}

	if name, _ := raw["name"].(string); strings.TrimSpace(name) == "" {
		raw["name"] = p.heading
	}
	if desc, _ := raw["description"].(string); strings.TrimSpace(desc) == "" {
		raw["description"] = p.description
	}
	if _, ok := raw["imageUrl"]; !ok && p.ogImage != "" {
		raw["imageUrl"] = p.ogImage
	}

	draft := recipe.FromMap(raw)
	if draft.Name == "" {
		return recipe.Draft{}, ErrNoRecipe
	}
	return draft, nil
}

func (p *page) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script:
			if strings.EqualFold(strings.TrimSpace(attr(n, "type")), "application/ld+json") {
				p.jsonLD = append(p.jsonLD, textContent(n))
			}
		case atom.H1:
			if p.heading == "" {
				p.heading = collapseSpace(textContent(n))
			}
		case atom.Meta:
			name := strings.ToLower(attr(n, "name"))
			property := strings.ToLower(attr(n, "property"))
			content := strings.TrimSpace(attr(n, "content"))
			switch {
			case name == "description" && p.description == "":
				p.description = content
			case property == "og:description" && p.description == "":
				p.description = content
			case property == "og:image" && p.ogImage == "":
				p.ogImage = content
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf bytes.Buffer
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return buf.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func decodeJSON(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// findRecipe searches JSON-LD (including arrays and @graph containers) for a node
// typed Recipe.
func findRecipe(v any) map[string]any {
	switch v := v.(type) {
	case []any:
		for _, item := range v {
			if found := findRecipe(item); found != nil {
				return found
			}
		}
	case map[string]any:
		if hasType(v["@type"], "Recipe") {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findRecipe(graph)
		}
	}
	return nil
}

func hasType(v any, want string) bool {
	switch v := v.(type) {
	case string:
		return v == want || strings.HasSuffix(v, "/"+want)
	case []any:
		for _, item := range v {
			if hasType(item, want) {
				return true
			}
		}
	}
	return false
}

// fromSchema maps a schema.org Recipe onto the loose recipe payload shape.
func fromSchema(node map[string]any) map[string]any {
	raw := map[string]any{
		"name":         plain(node["name"]),
		"description":  plain(node["description"]),
		"ingredients":  stringList(node["recipeIngredient"], node["ingredients"]),
		"instructions": steps(node["recipeInstructions"]),
		"prepTime":     node["prepTime"],
		"cookTime":     node["cookTime"],
		"totalTime":    node["totalTime"],
	}
	if image := imageURL(node["image"]); image != "" {
		raw["imageUrl"] = image
	}
	if n, ok := node["nutrition"].(map[string]any); ok {
		raw["nutritionInfo"] = nutrition(n)
	}
	return raw
}

func plain(v any) string {
	s, _ := v.(string)
	return collapseSpace(html.UnescapeString(s))
}

func stringList(values ...any) []any {
	out := []any{}
	for _, v := range values {
		items, ok := v.([]any)
		if !ok {
			if s, isString := v.(string); isString {
				items = []any{s}
			}
		}
		for _, item := range items {
			if s := plain(item); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return out
}

// steps flattens HowToStep, HowToSection and plain-string instructions.
func steps(v any) []any {
	out := []any{}
	var visit func(any)
	visit = func(v any) {
		switch v := v.(type) {
		case string:
			for _, line := range strings.Split(v, "\n") {
				if s := plain(line); s != "" {
					out = append(out, s)
				}
			}
		case []any:
			for _, item := range v {
				visit(item)
			}
		case map[string]any:
			if items, ok := v["itemListElement"]; ok {
				visit(items)
				return
			}
			text := plain(v["text"])
			if text == "" {
				text = plain(v["name"])
			}
			if text != "" {
				out = append(out, text)
			}
		}
	}
	visit(v)
	return out
}

func imageURL(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		for _, item := range v {
			if s := imageURL(item); s != "" {
				return s
			}
		}
	case map[string]any:
		return imageURL(v["url"])
	}
	return ""
}

var leadingNumber = regexp.MustCompile(`^\s*([0-9]+(?:[.,][0-9]+)*)\s*([a-zA-Zµ]*)`)

func nutrition(n map[string]any) map[string]any {
	out := map[string]any{
		"calories": quantity(n["calories"]),
		"protein":  quantity(n["proteinContent"]),
		"carbs":    quantity(n["carbohydrateContent"]),
		"fat":      quantity(n["fatContent"]),
		"vitamins": map[string]any{},
		"minerals": map[string]any{},
	}
	if sodium, ok := n["sodiumContent"]; ok {
		mg := quantity(sodium)
		if unit := unitOf(sodium); unit == "g" {
			mg *= 1000
		}
		out["minerals"] = map[string]any{"sodium": mg}
	}
	return out
}

// quantity reads the leading number of values such as "240 kcal" or "1,200 mg".
func quantity(v any) float64 {
	switch v := v.(type) {
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		m := leadingNumber.FindStringSubmatch(v)
		if m == nil {
			return 0
		}
		num := m[1]
		if strings.Count(num, ",") > 0 && !strings.Contains(num, ".") && len(num)-strings.LastIndex(num, ",") == 4 {
			num = strings.ReplaceAll(num, ",", "")
		} else {
			num = strings.ReplaceAll(num, ",", ".")
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func unitOf(v any) string {
	s, _ := v.(string)
	if m := leadingNumber.FindStringSubmatch(s); m != nil {
		return strings.ToLower(m[2])
	}
	return ""
}
