package article

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/article_generator/internal/models"
)

func TestBuildImageMap(t *testing.T) {
	products := []models.Product{
		{ID: 7, Images: []string{"https://img/a.jpg", "https://img/b.jpg", "https://img/c.jpg", "https://img/d.jpg"}},
		{ID: 2},
		{ID: 3, Images: []string{"https://img/e.jpg"}},
	}

	m := BuildImageMap(products)
	assert.Equal(t, ImageMap{
		{Marker: "IMAGE:7:0", URL: "https://img/a.jpg"},
		{Marker: "IMAGE:7:1", URL: "https://img/b.jpg"},
		{Marker: "IMAGE:7:2", URL: "https://img/c.jpg"},
		{Marker: "IMAGE:3:0", URL: "https://img/e.jpg"},
	}, m)
}

func TestBindImageMarkers(t *testing.T) {
	m := ImageMap{{Marker: "IMAGE:7:0", URL: "https://img.example/a.jpg"}}

	bound := BindImageMarkers("看這個 {{IMAGE:7:0}} 還有 {{IMAGE:8:0}}", m)

	assert.Contains(t, bound, "https://img.example/a.jpg")
	assert.Equal(t, "看這個 ![IMAGE:7:0](https://img.example/a.jpg) 還有 ", bound)
	assert.NotContains(t, bound, "{{")
}

func TestRenderForCopy(t *testing.T) {
	m := ImageMap{
		{Marker: "IMAGE:1:0", URL: "https://img/1.jpg"},
		{Marker: "IMAGE:1:1", URL: "https://img/2.jpg"},
	}
	content := "第一段\n{{IMAGE:1:1}}\n第二段\n\n{{IMAGE:1:0}}\n\n第三段 {{IMAGE:1:1}} {{IMAGE:5:5}}"

	rendered, used := RenderForCopy(content, m)

	assert.Contains(t, rendered, "📷 [在此插入圖片: IMAGE:1:1]")
	assert.Contains(t, rendered, "📷 [在此插入圖片: IMAGE:1:0]")
	assert.NotContains(t, rendered, "{{")
	assert.NotContains(t, rendered, "\n\n\n")
	assert.Equal(t, []ImageMarker{
		{Marker: "IMAGE:1:1", URL: "https://img/2.jpg"},
		{Marker: "IMAGE:1:0", URL: "https://img/1.jpg"},
	}, used)
}

func TestImageMapJSONKeepsOrder(t *testing.T) {
	m := ImageMap{
		{Marker: "IMAGE:9:0", URL: "https://img/9.jpg"},
		{Marker: "IMAGE:1:0", URL: "https://img/1.jpg"},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"IMAGE:9:0":"https://img/9.jpg","IMAGE:1:0":"https://img/1.jpg"}`, string(data))

	var decoded ImageMap
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, m, decoded)

	require.NoError(t, json.Unmarshal([]byte("null"), &decoded))
	assert.Nil(t, decoded)
	assert.Error(t, json.Unmarshal([]byte(`["x"]`), &decoded))

	data, err = json.Marshal(ImageMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestParseType(t *testing.T) {
	articleType, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeComparison, articleType)

	articleType, err = ParseType("review")
	require.NoError(t, err)
	assert.Equal(t, TypeReview, articleType)

	_, err = ParseType("listicle")
	assert.Error(t, err)
}
