package article

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chynybekuuludastan/article_generator/internal/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{(IMAGE:[^{}]*)\}\}`)

// MarkerToken names the idx-th gallery image of a product.
func MarkerToken(productID uint, idx int) string {
	return fmt.Sprintf("IMAGE:%d:%d", productID, idx)
}

// Placeholder wraps a marker token in braces as it appears in text.
func Placeholder(marker string) string {
	return "{{" + marker + "}}"
}

// ProductMarkers lists the markers a product exposes, one per gallery image
// up to MarkersPerProduct.
func ProductMarkers(p models.Product) []string {
	limit := len(p.Images)
	if limit > MarkersPerProduct {
		limit = MarkersPerProduct
	}
	markers := make([]string, 0, limit)
	for idx := 0; idx < limit; idx++ {
		markers = append(markers, MarkerToken(p.ID, idx))
	}
	return markers
}

// BuildImageMap maps every product marker to its image URL, in product order.
func BuildImageMap(products []models.Product) ImageMap {
	var m ImageMap
	for _, product := range products {
		for idx, marker := range ProductMarkers(product) {
			m = append(m, ImageMarker{Marker: marker, URL: product.Images[idx]})
		}
	}
	return m
}

// RemoveUnknownMarkers drops placeholders the map cannot resolve.
func RemoveUnknownMarkers(content string, m ImageMap) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		marker := match[2 : len(match)-2]
		if _, ok := m.URL(marker); ok {
			return match
		}
		return ""
	})
}

// BindImageMarkers replaces known placeholders with image embeds of the form
// ![IMAGE:12:0](url). Unknown placeholders are removed.
func BindImageMarkers(content string, m ImageMap) string {
	for _, entry := range m {
		content = strings.ReplaceAll(content, Placeholder(entry.Marker), "!["+entry.Marker+"]("+entry.URL+")")
	}
	return RemoveUnknownMarkers(content, m)
}

// RenderForCopy turns placeholders into visible paste hints for manual
// posting and returns the markers in the order they first appear.
func RenderForCopy(content string, m ImageMap) (string, []ImageMarker) {
	var used []ImageMarker
	seen := make(map[string]bool)

	rendered := placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		marker := match[2 : len(match)-2]
		url, ok := m.URL(marker)
		if !ok {
			return ""
		}
		if !seen[marker] {
			seen[marker] = true
			used = append(used, ImageMarker{Marker: marker, URL: url})
		}
		return "\n\n📷 [在此插入圖片: " + marker + "]\n\n"
	})

	return strings.TrimSpace(collapseBlankLines(rendered)), used
}
