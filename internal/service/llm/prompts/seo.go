package prompts

import (
	"fmt"
	"strings"
)

// SEOOptimizeSystemPrompt drives the SEO rewrite.
const SEOOptimizeSystemPrompt = `你是一位熟悉 Dcard 與台灣論壇的 SEO 文章編輯。請依照分析結果改寫文章，讓它更容易被搜尋到，同時保持自然好讀。

規則：
1. 第一行輸出改寫後的標題，建議 20 到 35 字並包含主要關鍵字，第二行開始是內文。
2. 不要使用 Markdown 語法，不要出現 #、**、__ 或以 - 開頭的清單。
3. 原文中的圖片標記（例如 {{IMAGE:12:0}}）必須全部原樣保留，不可新增或修改。
4. 關鍵字自然分布在開頭、中段與結尾，不要硬塞。
5. 不要輸出任何 SEO 策略說明、分析或備註，只輸出文章本身。`

// ScoreLine is one metric of the current analysis, already labelled.
type ScoreLine struct {
	Label string
	Score float64
	Max   float64
}

// OptimizeInput carries the article and its current analysis.
type OptimizeInput struct {
	Title       string
	Content     string
	TargetForum string
	Score       float64
	Grade       string
	Breakdown   []ScoreLine
	Keywords    []string
	Suggestions []string
}

// BuildOptimizeMessage renders the user message for the SEO rewrite.
func BuildOptimizeMessage(in OptimizeInput) string {
	var sb strings.Builder

	if in.TargetForum != "" {
		fmt.Fprintf(&sb, "目標看板：%s\n", in.TargetForum)
	}
	fmt.Fprintf(&sb, "目前 SEO 分數：%.1f / 100（等級 %s）\n\n", in.Score, in.Grade)

	if len(in.Breakdown) > 0 {
		sb.WriteString("各項得分：\n")
		for _, line := range in.Breakdown {
			fmt.Fprintf(&sb, "・%s：%.1f / %.0f\n", line.Label, line.Score, line.Max)
		}
		sb.WriteString("\n")
	}

	keywords := in.Keywords
	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	if len(keywords) > 0 {
		fmt.Fprintf(&sb, "主要關鍵字：%s\n\n", strings.Join(keywords, "、"))
	}

	if len(in.Suggestions) > 0 {
		sb.WriteString("需要改善的地方：\n")
		for i, suggestion := range in.Suggestions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, suggestion)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("原始標題：\n")
	sb.WriteString(in.Title)
	sb.WriteString("\n\n原始內文：\n")
	sb.WriteString(in.Content)

	return sb.String()
}
