package cms

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// jsonSelectorPrefix marks selectors that address JSON bodies by gjson
// path instead of CSS.
const jsonSelectorPrefix = "json:"

// ExtractValue pulls the content a selector addresses out of a page body
// and returns it in string form.
func ExtractValue(body []byte, selector string) (string, error) {
	if len(body) == 0 {
		return "", fmt.Errorf("empty page body")
	}
	if selector == "" {
		return "", fmt.Errorf("empty selector")
	}
	if path, ok := strings.CutPrefix(selector, jsonSelectorPrefix); ok {
		return extractJSON(body, path)
	}
	return extractHTML(body, selector)
}

func extractJSON(body []byte, path string) (string, error) {
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	// Handle null values
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

func extractHTML(body []byte, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("selector not found: %s", selector)
	}
	return strings.TrimSpace(sel.First().Text()), nil
}
