package article

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chynybekuuludastan/article_generator/internal/service/images"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// ErrNoProducts is returned when a generation request resolves no products.
var ErrNoProducts = errors.New("no products to write about")

// Type selects the article flavour and its fallback title.
type Type string

const (
	TypeComparison Type = "comparison"
	TypeReview     Type = "review"
	TypeSEO        Type = "seo"
)

// ParseType validates an article type; empty means comparison.
func ParseType(value string) (Type, error) {
	switch t := Type(value); t {
	case "":
		return TypeComparison, nil
	case TypeComparison, TypeReview, TypeSEO:
		return t, nil
	}
	return "", fmt.Errorf("unknown article type %q", value)
}

// GenerationRequest describes one article to generate.
type GenerationRequest struct {
	ProductIDs       []uint
	ArticleType      Type
	TargetForum      string
	PromptTemplateID *uint
	Model            string
	IncludeImages    bool
	ImageSources     []images.Source
	UserID           *uint
}

// GenerationResult is a finished article.
type GenerationResult struct {
	Title             string           `json:"title"`
	Content           string           `json:"content"`
	ContentWithImages string           `json:"content_with_images"`
	ImageMap          ImageMap         `json:"image_map"`
	Model             string           `json:"model"`
	Provider          string           `json:"provider"`
	InputTokens       int              `json:"input_tokens"`
	OutputTokens      int              `json:"output_tokens"`
	ImagesUsed        int              `json:"images_used"`
	Attempts          llm.RetryHistory `json:"retry_history,omitempty"`
	Warnings          []string         `json:"warnings"`
}

// ImageMarker binds a placeholder token such as "IMAGE:12:0" to an image URL.
type ImageMarker struct {
	Marker string `json:"marker"`
	URL    string `json:"url"`
}

// ImageMap is an insertion-ordered marker to URL mapping. It encodes as a
// JSON object whose keys keep that order.
type ImageMap []ImageMarker

// URL looks a marker up.
func (m ImageMap) URL(marker string) (string, bool) {
	for _, entry := range m {
		if entry.Marker == marker {
			return entry.URL, true
		}
	}
	return "", false
}

func (m ImageMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Marker)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.URL)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *ImageMap) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if token == nil {
		*m = nil
		return nil
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("image map must be a JSON object")
	}

	var result ImageMap
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := keyToken.(string)
		if !ok {
			return fmt.Errorf("image map key must be a string")
		}
		var url string
		if err := decoder.Decode(&url); err != nil {
			return fmt.Errorf("image map value for %q: %w", key, err)
		}
		result = append(result, ImageMarker{Marker: key, URL: url})
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}

	*m = result
	return nil
}
