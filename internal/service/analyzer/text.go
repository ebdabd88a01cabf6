package analyzer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	paragraphSplit    = regexp.MustCompile(`\n[ \t]*\n`)
	sentenceSplit     = regexp.MustCompile(`[。！？!?\n]+`)
	separatorLine     = regexp.MustCompile(`^\s*(?:={3,}|—{3,}|─{3,})\s*$`)
	anySeparatorLine  = regexp.MustCompile(`^\s*(?:[-=*_─—]\s*){3,}$`)
	numberedLine      = regexp.MustCompile(`^\d{1,2}[.、)）]\s*\S`)
	placeholderToken  = regexp.MustCompile(`\{\{IMAGE:\d+:\d+\}\}`)
	embeddedImage     = regexp.MustCompile(`!\[[^\]]*\]\([^)\s]+\)`)
	questionPrefix    = regexp.MustCompile(`(?i)^Q\d*\s*[:：.．、]`)
	faqSectionMarker  = regexp.MustCompile(`(?i)FAQ|Q\s*[&＆]\s*A|常見問題|問與答`)
	bulletPunctuation = "-*•●・▪◆◇■□★☆✔✓→➡👉"
)

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// splitParagraphs splits on blank lines and drops empty paragraphs.
func splitParagraphs(content string) []string {
	var paragraphs []string
	for _, p := range paragraphSplit.Split(content, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitSentences splits on CJK and ASCII sentence punctuation and newlines,
// keeping sentences of at least five characters.
func splitSentences(content string) []string {
	var sentences []string
	for _, s := range sentenceSplit.Split(content, -1) {
		if s = strings.TrimSpace(s); runeLen(s) >= 5 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	}
	return false
}

func countEmoji(s string) int {
	count := 0
	for _, r := range s {
		if isEmoji(r) {
			count++
		}
	}
	return count
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// isBulletLine reports lines that start with a bullet glyph, an emoji or a
// list number. Separator lines are not bullets.
func isBulletLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || anySeparatorLine.MatchString(trimmed) {
		return false
	}
	first := firstRune(trimmed)
	return strings.ContainsRune(bulletPunctuation, first) || isEmoji(first) || numberedLine.MatchString(trimmed)
}

// isQuestionLine detects "Q1:" style prompts, emoji-led questions and lines
// ending in a question mark.
func isQuestionLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if questionPrefix.MatchString(trimmed) {
		return true
	}
	hasQuestionMark := strings.ContainsAny(trimmed, "?？")
	if isEmoji(firstRune(trimmed)) && hasQuestionMark {
		return true
	}
	return strings.HasSuffix(trimmed, "?") || strings.HasSuffix(trimmed, "？")
}

func countImages(content string) int {
	return len(placeholderToken.FindAllStringIndex(content, -1)) + len(embeddedImage.FindAllStringIndex(content, -1))
}

// substringRunes returns runes [start, end) of s.
func substringRunes(runes []rune, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
