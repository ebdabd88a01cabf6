package analyzer

import (
	"math"
	"sort"
)

// MetricScore is one line of the score breakdown.
type MetricScore struct {
	Score float64 `json:"score"`
	Max   float64 `json:"max"`
	Label string  `json:"label"`
}

// Suggestion is a ranked improvement hint. Priority 1 is the most severe.
type Suggestion struct {
	Priority int    `json:"priority"`
	Metric   string `json:"metric"`
	Message  string `json:"message"`
}

// scorecard accumulates metric scores and suggestions during one analysis.
type scorecard struct {
	order       []string
	breakdown   map[string]MetricScore
	suggestions []Suggestion
}

func newScorecard() *scorecard {
	return &scorecard{
		breakdown: make(map[string]MetricScore),
	}
}

// setMetric stores a metric rounded to one decimal and clamped to its max.
func (c *scorecard) setMetric(key string, score, max float64) {
	score = round1(math.Max(0, math.Min(score, max)))
	if _, exists := c.breakdown[key]; !exists {
		c.order = append(c.order, key)
	}
	c.breakdown[key] = MetricScore{Score: score, Max: max, Label: metricLabels[key]}
}

// addSuggestions attaches hints for a metric, ranked by how far the metric
// fell short. Duplicate messages are dropped.
func (c *scorecard) addSuggestions(key string, messages []string) {
	metric := c.breakdown[key]
	if metric.Score >= metric.Max {
		return
	}
	priority := priorityFor(metric.Score, metric.Max)

	for _, message := range messages {
		duplicate := false
		for _, existing := range c.suggestions {
			if existing.Message == message {
				duplicate = true
				break
			}
		}
		if !duplicate {
			c.suggestions = append(c.suggestions, Suggestion{Priority: priority, Metric: key, Message: message})
		}
	}
}

// total sums the rounded metric scores.
func (c *scorecard) total() float64 {
	var sum float64
	for _, key := range c.order {
		sum += c.breakdown[key].Score
	}
	return round1(sum)
}

// ranked returns suggestions sorted by priority, stable within a priority.
func (c *scorecard) ranked() []Suggestion {
	ranked := make([]Suggestion, len(c.suggestions))
	copy(ranked, c.suggestions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority < ranked[j].Priority
	})
	return ranked
}

func priorityFor(score, max float64) int {
	ratio := score / max
	switch {
	case ratio < 0.4:
		return 1
	case ratio < 0.75:
		return 2
	default:
		return 3
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
