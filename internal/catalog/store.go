// Package catalog is the in-memory metadata store for clothing items.
// The catalog is loaded once at startup and read-only afterwards.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/kailas-cloud/attire/internal/domain"
)

// clothingTypes is the fixed allow-list of article types retained from the
// source table. Everything else (accessories, footwear, innerwear) is dropped.
var clothingTypes = map[string]struct{}{
	"Shirts": {}, "Tshirts": {}, "Jeans": {}, "Trousers": {}, "Shorts": {},
	"Dresses": {}, "Skirts": {}, "Tops": {},
	"Kurtas": {}, "Kurtis": {}, "Tunics": {},
	"Sweaters": {}, "Sweatshirts": {}, "Jackets": {}, "Rain Jacket": {},
	"Waistcoat": {}, "Shrug": {},
	"Track Pants": {}, "Tracksuits": {},
	"Night suits": {}, "Nightdress": {},
	"Salwar": {}, "Patiala": {}, "Lehenga Choli": {}, "Sarees": {},
	"Jeggings": {}, "Leggings": {},
	"Rompers": {}, "Swimwear": {},
	"Suits": {},
}

// IsClothingType reports whether the article type is in the allow-list.
func IsClothingType(articleType string) bool {
	_, ok := clothingTypes[articleType]
	return ok
}

// Store indexes catalog items by id.
type Store struct {
	byID  map[string]domain.CatalogItem
	items []domain.CatalogItem
}

// Load reads the catalog CSV, keeps rows with all required fields present and
// an allow-listed article type, and indexes them by id.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return s, nil
}

// Parse reads catalog rows from r. The first record is a header naming at
// least id, gender, articleType, season and usage columns.
func Parse(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	// Source table has free-text product names with stray quotes.
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"id", "gender", "articleType", "season", "usage"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	s := &Store{byID: make(map[string]domain.CatalogItem)}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		item, ok := itemFromRecord(rec, cols)
		if !ok {
			continue
		}
		if _, dup := s.byID[item.ID]; dup {
			continue
		}
		s.byID[item.ID] = item
		s.items = append(s.items, item)
	}

	if len(s.items) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	return s, nil
}

// itemFromRecord extracts a catalog item from a CSV record. Rows with any
// empty required field or a non-clothing article type are skipped.
func itemFromRecord(rec []string, cols map[string]int) (domain.CatalogItem, bool) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	item := domain.CatalogItem{
		ID:          field("id"),
		Gender:      field("gender"),
		ArticleType: field("articleType"),
		Season:      normalizeSeason(field("season")),
		Usage:       domain.Usage(field("usage")),
	}
	if item.ID == "" || item.Gender == "" || item.ArticleType == "" ||
		item.Season == "" || item.Usage == "" {
		return domain.CatalogItem{}, false
	}
	if !IsClothingType(item.ArticleType) {
		return domain.CatalogItem{}, false
	}
	return item, true
}

// normalizeSeason maps the source table's "Fall" label to the canonical
// Autumn value used by the season classifier.
func normalizeSeason(s string) domain.Season {
	if s == "Fall" {
		return domain.SeasonAutumn
	}
	return domain.Season(s)
}

// Lookup returns the item with the given id.
func (s *Store) Lookup(id string) (domain.CatalogItem, error) {
	item, ok := s.byID[id]
	if !ok {
		return domain.CatalogItem{}, domain.ErrItemNotFound
	}
	return item, nil
}

// Items returns all catalog items in load order. Callers must not mutate
// the returned slice.
func (s *Store) Items() []domain.CatalogItem {
	return s.items
}

// Len returns the number of catalog items.
func (s *Store) Len() int {
	return len(s.items)
}
