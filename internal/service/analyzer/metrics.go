package analyzer

import (
	"fmt"
	"strings"
)

const (
	MetricTitleSEO         = "title_seo"
	MetricKeywordDensity   = "keyword_density"
	MetricKeywordPlacement = "keyword_placement"
	MetricContentStructure = "content_structure"
	MetricContentLength    = "content_length"
	MetricFAQQuality       = "faq_quality"
	MetricMediaUsage       = "media_usage"
	MetricReadability      = "readability"
)

// metricOrder is the order metrics are evaluated and reported in.
var metricOrder = []string{
	MetricTitleSEO,
	MetricKeywordDensity,
	MetricKeywordPlacement,
	MetricContentStructure,
	MetricContentLength,
	MetricFAQQuality,
	MetricMediaUsage,
	MetricReadability,
}

var metricMax = map[string]float64{
	MetricTitleSEO:         15,
	MetricKeywordDensity:   20,
	MetricKeywordPlacement: 15,
	MetricContentStructure: 15,
	MetricContentLength:    15,
	MetricFAQQuality:       10,
	MetricMediaUsage:       5,
	MetricReadability:      5,
}

var metricLabels = map[string]string{
	MetricTitleSEO:         "標題 SEO",
	MetricKeywordDensity:   "關鍵字密度",
	MetricKeywordPlacement: "關鍵字佈局",
	MetricContentStructure: "內容結構",
	MetricContentLength:    "內容長度",
	MetricFAQQuality:       "FAQ 品質",
	MetricMediaUsage:       "圖片使用",
	MetricReadability:      "可讀性",
}

// analysisInput is the shared view every metric scores against.
type analysisInput struct {
	title         string
	content       string
	contentRunes  []rune
	keywords      []string
	paragraphs    []string
	lines         []string
	density       float64
	imageCount    int
	contentLength int
}

type metricFunc func(in *analysisInput) (float64, []string)

var metricFuncs = map[string]metricFunc{
	MetricTitleSEO:         scoreTitle,
	MetricKeywordDensity:   scoreKeywordDensity,
	MetricKeywordPlacement: scoreKeywordPlacement,
	MetricContentStructure: scoreContentStructure,
	MetricContentLength:    scoreContentLength,
	MetricFAQQuality:       scoreFAQ,
	MetricMediaUsage:       scoreMedia,
	MetricReadability:      scoreReadability,
}

func topKeywords(keywords []string, n int) []string {
	if len(keywords) > n {
		return keywords[:n]
	}
	return keywords
}

func scoreTitle(in *analysisInput) (float64, []string) {
	n := runeLen(strings.TrimSpace(in.title))
	var score float64
	var messages []string

	switch {
	case n == 0:
		messages = append(messages, "請加上文章標題，建議長度 20 到 35 字")
	case n >= 20 && n <= 35:
		score = 10
	case n >= 15 && n <= 45:
		score = 7
		messages = append(messages, fmt.Sprintf("標題目前 %d 字，調整到 20 到 35 字效果最佳", n))
	case n < 15:
		score = 7 * float64(n) / 15
		messages = append(messages, fmt.Sprintf("標題只有 %d 字太短，建議加入關鍵字延伸到 20 字以上", n))
	default:
		score = 7 * 45 / float64(n)
		messages = append(messages, fmt.Sprintf("標題長達 %d 字，搜尋結果會被截斷，建議縮短到 35 字以內", n))
	}

	for _, kw := range topKeywords(in.keywords, 3) {
		if strings.Contains(in.title, kw) {
			return score + 5, messages
		}
	}
	if len(in.keywords) > 0 {
		messages = append(messages, fmt.Sprintf("標題中請包含主要關鍵字「%s」", in.keywords[0]))
	} else {
		messages = append(messages, "標題缺少明確的關鍵字，建議用【】標出主題關鍵字")
	}
	return score, messages
}

// keywordDensity is the share of content characters covered by keyword
// occurrences, as a percentage of the raw content length.
func keywordDensity(content string, contentLength int, keywords []string) float64 {
	if contentLength == 0 || len(keywords) == 0 {
		return 0
	}
	covered := 0
	for _, kw := range keywords {
		covered += strings.Count(content, kw) * runeLen(kw)
	}
	return float64(covered) / float64(contentLength) * 100
}

func scoreKeywordDensity(in *analysisInput) (float64, []string) {
	if len(in.keywords) == 0 {
		return 10, []string{"找不到可分析的關鍵字，請在標題中明確寫出主題關鍵字"}
	}
	if in.contentLength == 0 {
		return 0, []string{"內文是空的，無法計算關鍵字密度"}
	}

	d := in.density
	switch {
	case d >= 1 && d <= 2:
		return 20, nil
	case d >= 0.5 && d < 1:
		return 14, []string{fmt.Sprintf("關鍵字密度 %.2f%% 略低，建議在內文自然多提幾次主要關鍵字", d)}
	case d > 2 && d <= 3:
		return 14, []string{fmt.Sprintf("關鍵字密度 %.2f%% 略高，建議減少重複的關鍵字", d)}
	case d >= 0.2 && d < 0.5:
		return 8, []string{fmt.Sprintf("關鍵字密度只有 %.2f%%，內文幾乎沒有提到主要關鍵字", d)}
	case d > 3 && d <= 5:
		return 8, []string{fmt.Sprintf("關鍵字密度 %.2f%% 過高，可能被視為關鍵字堆砌", d)}
	case d > 5:
		return 4, []string{fmt.Sprintf("關鍵字密度 %.2f%% 嚴重過高，請改用同義詞替換部分關鍵字", d)}
	default:
		return 4, []string{fmt.Sprintf("關鍵字密度 %.2f%% 太低，請在內文中加入主要關鍵字", d)}
	}
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func scoreKeywordPlacement(in *analysisInput) (float64, []string) {
	if len(in.keywords) == 0 || in.contentLength == 0 {
		return 0, []string{"內文開頭與各段落都找不到關鍵字"}
	}

	var score float64
	var messages []string

	if containsAnyKeyword(substringRunes(in.contentRunes, 0, 100), in.keywords) {
		score += 7.5
	} else {
		messages = append(messages, "請在文章前 100 字內提到主要關鍵字")
	}

	n := in.contentLength
	covered := 0
	for i := 0; i < 4; i++ {
		start, end := i*n/4, (i+1)*n/4
		if end == start {
			// very short content: every quarter still spans one rune
			if start > 0 {
				start--
			} else {
				end++
			}
		}
		if containsAnyKeyword(substringRunes(in.contentRunes, start, end), in.keywords) {
			covered++
		}
	}
	score += 7.5 * float64(covered) / 4
	if covered < 4 {
		messages = append(messages, fmt.Sprintf("關鍵字只分布在 %d / 4 個段落區塊，請讓前中後段都自然出現關鍵字", covered))
	}
	return score, messages
}

func scoreContentStructure(in *analysisInput) (float64, []string) {
	var score float64
	var messages []string

	count := len(in.paragraphs)
	switch {
	case count >= 8 && count <= 25:
		score += 5.25
	case (count >= 4 && count < 8) || (count > 25 && count <= 40):
		score += 2.625
		messages = append(messages, fmt.Sprintf("目前 %d 個段落，建議分成 8 到 25 段", count))
	default:
		messages = append(messages, fmt.Sprintf("段落數 %d 不理想，建議分成 8 到 25 段並以空行分隔", count))
	}

	if count > 0 {
		longest, total := 0, 0
		for _, p := range in.paragraphs {
			n := runeLen(p)
			total += n
			if n > longest {
				longest = n
			}
		}
		avg := float64(total) / float64(count)
		longestOK := longest <= 300
		avgOK := avg >= 30 && avg <= 200
		switch {
		case longestOK && avgOK:
			score += 3.75
		case longestOK || avgOK:
			score += 1.875
		}
		if !longestOK {
			messages = append(messages, fmt.Sprintf("最長的段落有 %d 字，請拆成 300 字以內", longest))
		}
		if !avgOK {
			messages = append(messages, fmt.Sprintf("段落平均 %.0f 字，建議控制在 30 到 200 字", avg))
		}
	}

	bullets, separators := 0, 0
	for _, line := range in.lines {
		if separatorLine.MatchString(line) {
			separators++
			continue
		}
		if isBulletLine(line) {
			bullets++
		}
	}

	switch {
	case bullets >= 3:
		score += 3
	case bullets >= 1:
		score += 1.5
		messages = append(messages, "多使用條列或 emoji 開頭的重點整理，至少 3 項")
	default:
		messages = append(messages, "加入條列式重點（例如 ✅ 優點、⚠️ 缺點）方便快速閱讀")
	}

	switch {
	case separators >= 2:
		score += 3
	case separators == 1:
		score += 1.5
		messages = append(messages, "再加一條分隔線（例如 ===== ）區隔主要段落")
	default:
		messages = append(messages, "使用分隔線（例如 ===== 或 ───── ）區隔文章段落")
	}

	return score, messages
}

func scoreContentLength(in *analysisInput) (float64, []string) {
	n := in.contentLength
	switch {
	case n >= 1500 && n <= 2500:
		return 15, nil
	case n > 2500 && n <= 3500:
		return 13.5, []string{fmt.Sprintf("內文 %d 字略長，建議精簡到 2500 字以內", n)}
	case n > 3500 && n <= 5000:
		return 10.5, []string{fmt.Sprintf("內文 %d 字過長，讀者容易失去耐心，建議精簡到 2500 字以內", n)}
	case n > 5000:
		return 7.5, []string{fmt.Sprintf("內文 %d 字太長，建議拆成多篇文章", n)}
	case n >= 1000:
		return 10.5, []string{fmt.Sprintf("內文 %d 字，建議擴充到 1500 字以上", n)}
	case n >= 500:
		return 6, []string{fmt.Sprintf("內文只有 %d 字，請補充使用心得與細節到 1500 字以上", n)}
	case n > 0:
		return 1.5, []string{fmt.Sprintf("內文只有 %d 字，內容太少難以被搜尋引擎收錄", n)}
	default:
		return 0, []string{"內文是空的，請撰寫 1500 到 2500 字的內容"}
	}
}

func scoreFAQ(in *analysisInput) (float64, []string) {
	var score float64
	var messages []string

	if faqSectionMarker.MatchString(in.content) {
		score += 4
	} else {
		messages = append(messages, "加入「常見問題 FAQ」段落，回答讀者最常搜尋的問題")
	}

	questions := 0
	for _, line := range in.lines {
		if isQuestionLine(line) {
			questions++
		}
	}
	switch {
	case questions >= 3:
		score += 6
	case questions >= 1:
		score += 3
		messages = append(messages, fmt.Sprintf("目前只有 %d 個問答，建議至少 3 組 Q&A", questions))
	default:
		messages = append(messages, "使用 Q1: / A1: 的格式撰寫至少 3 組問答")
	}
	return score, messages
}

func scoreMedia(in *analysisInput) (float64, []string) {
	switch {
	case in.imageCount >= 3:
		return 5, nil
	case in.imageCount >= 1:
		return 2.5, []string{fmt.Sprintf("目前 %d 張圖片，建議至少放 3 張商品圖", in.imageCount)}
	default:
		return 0, []string{"文章沒有任何圖片，建議插入至少 3 張商品圖片"}
	}
}

func scoreReadability(in *analysisInput) (float64, []string) {
	var score float64
	var messages []string

	sentences := splitSentences(in.content)
	if len(sentences) == 0 {
		messages = append(messages, "找不到完整的句子，請用完整句子撰寫內文")
	} else {
		total := 0
		for _, s := range sentences {
			total += runeLen(s)
		}
		avg := float64(total) / float64(len(sentences))
		switch {
		case avg >= 15 && avg <= 50:
			score += 3
		case (avg >= 10 && avg < 15) || (avg > 50 && avg <= 80):
			score += 1.8
			messages = append(messages, fmt.Sprintf("平均句長 %.0f 字，建議控制在 15 到 50 字", avg))
		default:
			score += 0.6
			messages = append(messages, fmt.Sprintf("平均句長 %.0f 字不易閱讀，請調整句子長度到 15 到 50 字", avg))
		}
	}

	emoji := countEmoji(in.content)
	switch {
	case emoji >= 3 && emoji <= 30:
		score += 2
	case (emoji >= 1 && emoji < 3) || (emoji > 30 && emoji <= 50):
		score += 1
		messages = append(messages, fmt.Sprintf("目前使用 %d 個 emoji，建議維持在 3 到 30 個", emoji))
	default:
		if emoji == 0 {
			messages = append(messages, "適度加入 emoji 讓文章更生動，建議 3 到 30 個")
		} else {
			messages = append(messages, fmt.Sprintf("emoji 多達 %d 個，過多會影響閱讀", emoji))
		}
	}
	return score, messages
}
