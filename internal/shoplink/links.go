// Package shoplink builds web search URLs for recommended items so the
// frontend can offer "where to buy" shortcuts without any retailer API.
package shoplink

import (
	"net/url"
	"strings"

	"github.com/kailas-cloud/attire/internal/domain"
)

// Links holds one search URL per shopping surface.
type Links struct {
	Shopee         string `json:"shopee"`
	Google         string `json:"google"`
	GoogleShopping string `json:"google_shopping"`
	GoogleImages   string `json:"google_images"`
}

// BuildLinks derives search links from item attributes. The marketplace query
// stays short so its own ranking does the work; the web query is richer.
func BuildLinks(item domain.CatalogItem) Links {
	shopeeQuery := joinFields(item.ArticleType, item.Gender)
	googleQuery := joinFields("buy", item.ArticleType, item.Gender, string(item.Usage))

	if shopeeQuery == "" {
		shopeeQuery = "fashion"
	}
	if googleQuery == "" {
		googleQuery = shopeeQuery
	}

	return Links{
		Shopee:         "https://shopee.vn/search?keyword=" + url.QueryEscape(shopeeQuery),
		Google:         "https://www.google.com/search?q=" + url.QueryEscape(googleQuery),
		GoogleShopping: "https://www.google.com/search?tbm=shop&q=" + url.QueryEscape(googleQuery),
		GoogleImages:   "https://www.google.com/search?tbm=isch&q=" + url.QueryEscape(googleQuery),
	}
}

// joinFields joins non-empty parts with single spaces, collapsing any
// internal whitespace in each part.
func joinFields(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, " ")
}
