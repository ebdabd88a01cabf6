package analyzer

import (
	"math"
	"strings"
)

// MaxScore is the sum of all metric maxima.
const MaxScore = 100

// ContentStats are the raw measurements behind the score.
type ContentStats struct {
	TitleLength    int     `json:"title_length"`
	ContentLength  int     `json:"content_length"`
	ParagraphCount int     `json:"paragraph_count"`
	ImageCount     int     `json:"image_count"`
	KeywordDensity float64 `json:"keyword_density"`
}

// SEOReport is the result of scoring one article.
type SEOReport struct {
	Score       float64                `json:"score"`
	MaxScore    float64                `json:"max_score"`
	Grade       string                 `json:"grade"`
	Breakdown   map[string]MetricScore `json:"breakdown"`
	Suggestions []Suggestion           `json:"suggestions"`
	Keywords    []string               `json:"keywords"`
	Stats       ContentStats           `json:"stats"`
}

// Grade maps a total score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 85:
		return "A"
	case score >= 70:
		return "B"
	case score >= 50:
		return "C"
	default:
		return "D"
	}
}

// Analyze scores an article on eight weighted metrics. When keywords is
// empty they are extracted from the title. Analyze is deterministic and
// never fails; degenerate input just scores low.
func Analyze(title, content string, keywords []string) *SEOReport {
	keywords = normalizeKeywords(keywords)
	if len(keywords) == 0 {
		keywords = ExtractKeywords(title)
	}
	if keywords == nil {
		keywords = []string{}
	}

	contentRunes := []rune(content)
	in := &analysisInput{
		title:         title,
		content:       content,
		contentRunes:  contentRunes,
		keywords:      keywords,
		paragraphs:    splitParagraphs(content),
		lines:         strings.Split(content, "\n"),
		imageCount:    countImages(content),
		contentLength: len(contentRunes),
	}
	in.density = keywordDensity(content, in.contentLength, keywords)

	card := newScorecard()
	for _, key := range metricOrder {
		score, messages := metricFuncs[key](in)
		card.setMetric(key, score, metricMax[key])
		card.addSuggestions(key, messages)
	}

	total := math.Max(0, math.Min(card.total(), MaxScore))
	suggestions := card.ranked()

	return &SEOReport{
		Score:       total,
		MaxScore:    MaxScore,
		Grade:       Grade(total),
		Breakdown:   card.breakdown,
		Suggestions: suggestions,
		Keywords:    keywords,
		Stats: ContentStats{
			TitleLength:    runeLen(strings.TrimSpace(title)),
			ContentLength:  in.contentLength,
			ParagraphCount: len(in.paragraphs),
			ImageCount:     in.imageCount,
			KeywordDensity: math.Round(in.density*100) / 100,
		},
	}
}

// MetricKeys lists metric keys in report order.
func MetricKeys() []string {
	keys := make([]string, len(metricOrder))
	copy(keys, metricOrder)
	return keys
}
