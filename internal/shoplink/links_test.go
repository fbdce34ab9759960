package shoplink

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/attire/internal/domain"
)

func TestBuildLinks(t *testing.T) {
	item := domain.CatalogItem{
		ID:          "1163",
		Gender:      "Men",
		ArticleType: "Shirts",
		Season:      domain.SeasonSummer,
		Usage:       domain.UsageFormal,
	}

	links := BuildLinks(item)

	if links.Shopee != "https://shopee.vn/search?keyword=Shirts+Men" {
		t.Errorf("shopee link = %q", links.Shopee)
	}
	if links.Google != "https://www.google.com/search?q=buy+Shirts+Men+Formal" {
		t.Errorf("google link = %q", links.Google)
	}
	if !strings.Contains(links.GoogleShopping, "tbm=shop&q=buy+Shirts+Men+Formal") {
		t.Errorf("google shopping link = %q", links.GoogleShopping)
	}
	if !strings.Contains(links.GoogleImages, "tbm=isch&q=buy+Shirts+Men+Formal") {
		t.Errorf("google images link = %q", links.GoogleImages)
	}
}

func TestBuildLinks_MultiWordValuesAreEscaped(t *testing.T) {
	item := domain.CatalogItem{
		Gender:      "Women",
		ArticleType: "Flip Flops",
		Usage:       domain.UsageSmartCasual,
	}

	links := BuildLinks(item)

	if links.Shopee != "https://shopee.vn/search?keyword=Flip+Flops+Women" {
		t.Errorf("shopee link = %q", links.Shopee)
	}
	if !strings.HasSuffix(links.Google, "q=buy+Flip+Flops+Women+Smart+Casual") {
		t.Errorf("google link = %q", links.Google)
	}
}

func TestBuildLinks_EmptyItemFallsBack(t *testing.T) {
	links := BuildLinks(domain.CatalogItem{})

	if !strings.HasSuffix(links.Shopee, "keyword=fashion") {
		t.Errorf("shopee fallback = %q", links.Shopee)
	}
	if !strings.HasSuffix(links.Google, "q=buy") {
		t.Errorf("google fallback = %q", links.Google)
	}
}
