package article

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/chynybekuuludastan/article_generator/internal/models"
)

// MaxTitleRunes is the longest title accepted from model output.
const MaxTitleRunes = 80

var (
	headingPattern    = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	boldStarPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderPattern  = regexp.MustCompile(`__(.+?)__`)
	italicPattern     = regexp.MustCompile(`\*([^*\n]+?)\*`)
	listDashPattern   = regexp.MustCompile(`(?m)^([ \t]*)[-*][ \t]+([^\s\-*])`)
	separatorPattern  = regexp.MustCompile(`^\s*(?:[-=*_─—]\s*){3,}$`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown removes heading hashes, bold and italic markers and list
// dashes. Separator lines such as "---" or "* * *" are kept as they are.
func StripMarkdown(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if separatorPattern.MatchString(line) {
			continue
		}
		line = headingPattern.ReplaceAllString(line, "")
		line = boldStarPattern.ReplaceAllString(line, "$1")
		line = boldUnderPattern.ReplaceAllString(line, "$1")
		line = italicPattern.ReplaceAllString(line, "$1")
		lines[i] = listDashPattern.ReplaceAllString(line, "$1$2")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ExtractTitle takes the first line that is neither blank nor a separator as
// the title and the rest as content. ok is false when no usable title line
// exists or the candidate exceeds MaxTitleRunes; content is then the whole
// trimmed text.
func ExtractTitle(text string) (title, content string, ok bool) {
	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n"), "\n")

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || separatorPattern.MatchString(stripped) {
			continue
		}

		candidate := strings.TrimSpace(strings.TrimLeft(stripped, "#"))
		if candidate == "" || utf8.RuneCountInString(candidate) > MaxTitleRunes {
			break
		}
		return candidate, strings.TrimSpace(strings.Join(lines[i+1:], "\n")), true
	}
	return "", strings.TrimSpace(text), false
}

// ParseTitle splits model output into title and content, synthesising a
// title from the products when none can be extracted.
func ParseTitle(text string, products []models.Product, articleType Type) (string, string) {
	title, content, ok := ExtractTitle(text)
	if !ok {
		title = FallbackTitle(products, articleType)
	}
	return title, content
}

// FallbackTitle builds a title from product names.
func FallbackTitle(products []models.Product, articleType Type) string {
	if len(products) == 0 {
		return "好物推薦"
	}

	switch articleType {
	case TypeReview:
		return "【開箱】" + truncateRunes(products[0].Name, 30) + " 使用心得分享"
	case TypeSEO:
		return "【推薦】" + truncateRunes(products[0].Name, 30) + " 完整評測與購買指南"
	default:
		limit := len(products)
		if limit > 3 {
			limit = 3
		}
		names := make([]string, 0, limit)
		for _, product := range products[:limit] {
			names = append(names, truncateRunes(product.Name, 15))
		}
		return "【比較】" + strings.Join(names, " vs ") + " 哪個值得買？"
	}
}

func collapseBlankLines(text string) string {
	return blankLinesPattern.ReplaceAllString(text, "\n\n")
}
