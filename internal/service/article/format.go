package article

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/chynybekuuludastan/article_generator/internal/models"
)

const (
	maxDescriptionRunes = 500
	// MarkersPerProduct is how many gallery images each product exposes as
	// placeholders.
	MarkersPerProduct = 3
)

var pricePrinter = message.NewPrinter(language.English)

// FormatProducts renders the numbered product block embedded in the user
// message. Missing fields get explicit placeholders.
func FormatProducts(products []models.Product) string {
	parts := make([]string, 0, len(products))
	for i, product := range products {
		parts = append(parts, formatProduct(i+1, product))
	}
	return strings.Join(parts, "\n")
}

func formatProduct(position int, p models.Product) string {
	var sb strings.Builder

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "商品 %d:\n", position)
	fmt.Fprintf(&sb, "- 商品 ID: %d\n", p.ID)
	fmt.Fprintf(&sb, "- 名稱: %s\n", p.Name)
	fmt.Fprintf(&sb, "- 價格: %s\n", formatPrice(p.Price, "價格未知"))
	fmt.Fprintf(&sb, "- 原價: %s\n", formatPrice(p.OriginalPrice, "無折扣"))
	fmt.Fprintf(&sb, "- 折扣: %s\n", orDefault(p.Discount, "無"))
	fmt.Fprintf(&sb, "- 評分: %s / 5.0\n", formatRating(p.Rating))
	fmt.Fprintf(&sb, "- 銷量: %s\n", formatSold(p.Sold))
	fmt.Fprintf(&sb, "- 店家: %s\n", orDefault(p.ShopName, "未知"))
	fmt.Fprintf(&sb, "- 商品描述: %s\n", truncateRunes(plainDescription(p.Description), maxDescriptionRunes))

	markers := ProductMarkers(p)
	if len(markers) == 0 {
		sb.WriteString("- 可用圖片標記: 無\n")
	} else {
		tokens := make([]string, len(markers))
		for i, marker := range markers {
			tokens[i] = Placeholder(marker)
		}
		fmt.Fprintf(&sb, "- 可用圖片標記: %s\n", strings.Join(tokens, ", "))
	}

	return sb.String()
}

func formatPrice(price float64, missing string) string {
	if price <= 0 {
		return missing
	}
	return pricePrinter.Sprintf("NT$%.0f", price)
}

func formatRating(rating float64) string {
	if rating <= 0 {
		return "N/A"
	}
	return strconv.FormatFloat(rating, 'f', -1, 64)
}

func formatSold(sold int) string {
	if sold <= 0 {
		return "N/A"
	}
	return strconv.Itoa(sold)
}

// plainDescription flattens HTML descriptions to text.
func plainDescription(description string) string {
	description = strings.TrimSpace(description)
	if !strings.Contains(description, "<") {
		return collapseSpaces(description)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return collapseSpaces(description)
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, li, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return collapseSpaces(doc.Text())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
