package analyzer

import (
	"regexp"
	"strings"
)

// MaxKeywords caps the number of keywords extracted from a title.
const MaxKeywords = 10

var (
	bracketSegment = regexp.MustCompile(`【([^】]*)】|\[([^\]]*)\]|「([^」]*)」`)
	yearPattern    = regexp.MustCompile(`\d{4}`)
	fragmentSplit  = regexp.MustCompile(`[^\p{Han}\p{L}\p{N}]+`)
)

var stopWords = map[string]bool{
	"如果你": true, "為什麼": true, "怎麼樣": true, "哪個好": true,
	"我們": true, "你們": true, "他們": true, "這個": true, "那個": true,
	"什麼": true, "怎麼": true, "還是": true, "以及": true, "因為": true,
	"所以": true, "但是": true, "而且": true, "或是": true, "就是": true,
	"真的": true, "一個": true, "可以": true, "the": true, "and": true,
	"for": true, "with": true, "vs": true,
}

func isStopWord(word string) bool {
	return stopWords[strings.ToLower(word)]
}

// ExtractKeywords derives up to MaxKeywords keywords from an article title.
// Bracketed segments come first, then free-standing fragments of the rest
// of the title. Fragments longer than four characters are also split into
// their contiguous two to four character substrings.
func ExtractKeywords(title string) []string {
	collector := newKeywordCollector()

	for _, match := range bracketSegment.FindAllStringSubmatch(title, -1) {
		segment := match[1] + match[2] + match[3]
		segment = yearPattern.ReplaceAllString(segment, " ")
		for _, fragment := range fragmentSplit.Split(segment, -1) {
			collector.add(fragment)
		}
	}

	rest := bracketSegment.ReplaceAllString(title, " ")
	rest = yearPattern.ReplaceAllString(rest, " ")
	for _, fragment := range fragmentSplit.Split(rest, -1) {
		collector.add(fragment)
		runes := []rune(fragment)
		if len(runes) <= 4 {
			continue
		}
		for size := 4; size >= 2; size-- {
			for start := 0; start+size <= len(runes); start++ {
				collector.add(string(runes[start : start+size]))
			}
		}
	}

	return collector.keywords
}

type keywordCollector struct {
	seen     map[string]bool
	keywords []string
}

func newKeywordCollector() *keywordCollector {
	return &keywordCollector{seen: make(map[string]bool)}
}

func (k *keywordCollector) add(word string) {
	word = strings.TrimSpace(word)
	if len(k.keywords) >= MaxKeywords || k.seen[word] {
		return
	}
	n := runeLen(word)
	if n < 2 || n > 8 || isStopWord(word) || isAllDigits(word) {
		return
	}
	k.seen[word] = true
	k.keywords = append(k.keywords, word)
}

// normalizeKeywords trims, dedupes and caps an explicit keyword list.
func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	var out []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}
