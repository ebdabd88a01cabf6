package article

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chynybekuuludastan/article_generator/internal/models"
)

func TestFormatProducts(t *testing.T) {
	products := []models.Product{
		{
			ID:            12,
			Name:          "象印保溫瓶",
			Price:         1234,
			OriginalPrice: 1580,
			Discount:      "22%",
			Rating:        4.8,
			Sold:          3200,
			ShopName:      "象印官方店",
			Description:   "<p>真空斷熱</p><p>保溫<b>12</b>小時</p>",
			Images:        []string{"a", "b", "c", "d"},
		},
		{ID: 13, Name: "無名保溫杯"},
	}

	block := FormatProducts(products)

	assert.True(t, strings.HasPrefix(block, "---\n商品 1:\n- 商品 ID: 12\n- 名稱: 象印保溫瓶\n"))
	assert.Contains(t, block, "- 價格: NT$1,234\n")
	assert.Contains(t, block, "- 原價: NT$1,580\n")
	assert.Contains(t, block, "- 折扣: 22%\n")
	assert.Contains(t, block, "- 評分: 4.8 / 5.0\n")
	assert.Contains(t, block, "- 銷量: 3200\n")
	assert.Contains(t, block, "- 店家: 象印官方店\n")
	assert.Contains(t, block, "- 商品描述: 真空斷熱 保溫12小時\n")
	assert.Contains(t, block, "- 可用圖片標記: {{IMAGE:12:0}}, {{IMAGE:12:1}}, {{IMAGE:12:2}}\n")
	assert.NotContains(t, block, "{{IMAGE:12:3}}")

	second := block[strings.Index(block, "商品 2:"):]
	assert.Contains(t, second, "- 價格: 價格未知\n")
	assert.Contains(t, second, "- 原價: 無折扣\n")
	assert.Contains(t, second, "- 折扣: 無\n")
	assert.Contains(t, second, "- 評分: N/A / 5.0\n")
	assert.Contains(t, second, "- 銷量: N/A\n")
	assert.Contains(t, second, "- 店家: 未知\n")
	assert.Contains(t, second, "- 可用圖片標記: 無\n")
}

func TestFormatProductsTruncatesDescription(t *testing.T) {
	products := []models.Product{{ID: 1, Name: "商品", Description: strings.Repeat("字", 600)}}

	block := FormatProducts(products)

	assert.Contains(t, block, "- 商品描述: "+strings.Repeat("字", 500)+"\n")
	assert.NotContains(t, block, strings.Repeat("字", 501))
}

func TestFormatProductsEmpty(t *testing.T) {
	assert.Empty(t, FormatProducts(nil))
}
