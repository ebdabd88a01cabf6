package images

import (
	"fmt"
	"strings"

	"github.com/chynybekuuludastan/article_generator/internal/models"
)

// Source selects which product image list to pull from.
type Source string

const (
	SourceMain        Source = "main"
	SourceDescription Source = "description"
)

const (
	// MaxMainPerProduct caps gallery images taken from each product.
	MaxMainPerProduct = 3
	// MaxDescriptionPerProduct caps description images taken from each product.
	MaxDescriptionPerProduct = 5
)

// ParseSources validates source names. An empty list selects both sources.
func ParseSources(names []string) ([]Source, error) {
	if len(names) == 0 {
		return []Source{SourceMain, SourceDescription}, nil
	}

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		switch source := Source(strings.ToLower(strings.TrimSpace(name))); source {
		case SourceMain, SourceDescription:
			sources = append(sources, source)
		default:
			return nil, fmt.Errorf("unknown image source %q", name)
		}
	}
	return sources, nil
}

// CollectURLs lists image URLs for the products in product order, taking at
// most three main and five description images from each. Duplicates are
// dropped.
func CollectURLs(products []models.Product, sources []Source) []string {
	useMain, useDescription := false, false
	for _, source := range sources {
		switch source {
		case SourceMain:
			useMain = true
		case SourceDescription:
			useDescription = true
		}
	}

	seen := make(map[string]bool)
	var urls []string
	add := func(list []string, limit int) {
		taken := 0
		for _, url := range list {
			if taken == limit {
				return
			}
			url = strings.TrimSpace(url)
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			urls = append(urls, url)
			taken++
		}
	}

	for _, product := range products {
		if useMain {
			add(product.Images, MaxMainPerProduct)
		}
		if useDescription {
			add(product.DescriptionImages, MaxDescriptionPerProduct)
		}
	}
	return urls
}
