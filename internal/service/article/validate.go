package article

import (
	"fmt"
	"unicode"
)

// minArticleRunes is the length below which a generated article is flagged
// as truncated.
const minArticleRunes = 300

// Validate runs local quality checks on a finished article and returns
// human-readable warnings. An empty slice means nothing looked off.
func Validate(title, content string, imageMap ImageMap) []string {
	warnings := []string{}

	if title == "" {
		warnings = append(warnings, "Generated title is empty")
	}

	length := len([]rune(content))
	switch {
	case length == 0:
		return append(warnings, "Generated content is empty")
	case length < minArticleRunes:
		warnings = append(warnings,
			fmt.Sprintf("Generated content may be truncated (%d characters)", length))
	}

	if ratio := hanRatio(content); ratio < 0.6 {
		warnings = append(warnings,
			fmt.Sprintf("Content may not be written in Chinese (%.0f%% Han letters)", ratio*100))
	}

	if len(imageMap) > 0 && !placeholderPattern.MatchString(content) {
		warnings = append(warnings, "No image markers were placed in the article")
	}

	return warnings
}

// hanRatio is the share of letters in text that belong to the Han script.
func hanRatio(text string) float64 {
	letters, han := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(han) / float64(letters)
}
