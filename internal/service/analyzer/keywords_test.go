package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywordsFromBrackets(t *testing.T) {
	keywords := ExtractKeywords("【2026保溫瓶推薦】好用")

	assert.Equal(t, "保溫瓶推薦", keywords[0])
	assert.Contains(t, keywords, "好用")
	for _, kw := range keywords {
		assert.NotContains(t, kw, "2026")
	}
}

func TestExtractKeywordsSplitsLongFragments(t *testing.T) {
	keywords := ExtractKeywords("實測心得分享")

	assert.Equal(t, "實測心得分享", keywords[0])
	assert.Contains(t, keywords, "實測心得")
	assert.Contains(t, keywords, "心得分享")
	assert.LessOrEqual(t, len(keywords), MaxKeywords)
}

func TestExtractKeywordsFiltersStopWordsAndShortFragments(t *testing.T) {
	keywords := ExtractKeywords("為什麼 我 選 象印？")

	assert.Equal(t, []string{"象印"}, keywords)
}

func TestExtractKeywordsCapsAndDedupes(t *testing.T) {
	keywords := ExtractKeywords("【象印】象印 超級好用保溫瓶推薦清單 超級好用保溫瓶推薦清單")

	assert.Len(t, keywords, MaxKeywords)
	seen := map[string]bool{}
	for _, kw := range keywords {
		assert.False(t, seen[kw], "duplicate %s", kw)
		seen[kw] = true
	}
}

func TestExtractKeywordsEmpty(t *testing.T) {
	assert.Empty(t, ExtractKeywords(""))
	assert.Empty(t, ExtractKeywords("2026 ！！"))
}

func TestNormalizeKeywords(t *testing.T) {
	assert.Equal(t, []string{"保溫瓶", "象印"}, normalizeKeywords([]string{" 保溫瓶 ", "", "象印", "保溫瓶"}))
	assert.Nil(t, normalizeKeywords(nil))
}
