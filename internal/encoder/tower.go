// Package encoder implements the two-tower embedding model: a query tower
// over user intent and a candidate tower over catalog items, sharing one
// embedding space so candidate vectors can be precomputed at startup.
package encoder

import (
	"github.com/kailas-cloud/attire/internal/domain"
)

// table is a categorical embedding lookup. Unknown tokens map to row 0.
type table struct {
	index map[string]int
	rows  [][]float32
}

func (t *table) lookup(token string) []float32 {
	return t.rows[t.index[token]]
}

// dense is a fully connected layer with kernel (in x out) and bias.
type dense struct {
	w [][]float32
	b []float32
}

func (d *dense) outDim() int { return len(d.b) }

// forward computes in·w + b, optionally applying ReLU.
func (d *dense) forward(in []float32, relu bool) []float32 {
	out := make([]float32, len(d.b))
	copy(out, d.b)
	for i, x := range in {
		if x == 0 {
			continue
		}
		row := d.w[i]
		for j := range out {
			out[j] += x * row[j]
		}
	}
	if relu {
		for j, v := range out {
			if v < 0 {
				out[j] = 0
			}
		}
	}
	return out
}

// tower embeds the four categorical fields, concatenates them and projects
// through a small feed-forward stack. The candidate tower additionally blends
// a projected per-item id embedding into the content vector.
type tower struct {
	gender      *table
	usage       *table
	articleType *table
	season      *table

	id     *table
	idProj *dense

	hidden *dense
	output *dense
}

// content runs the shared categorical path: concat -> hidden ReLU -> output.
func (t *tower) content(gender, usage, articleType, season string) []float32 {
	parts := [][]float32{
		t.gender.lookup(gender),
		t.usage.lookup(usage),
		t.articleType.lookup(articleType),
		t.season.lookup(season),
	}
	concat := make([]float32, 0, 4*len(parts[0]))
	for _, p := range parts {
		concat = append(concat, p...)
	}
	return t.output.forward(t.hidden.forward(concat, true), false)
}

// Model holds both towers plus the shared embedding dimension.
type Model struct {
	dim       int
	query     *tower
	candidate *tower
}

// Dim returns the shared embedding space dimension.
func (m *Model) Dim() int { return m.dim }

// EncodeQuery maps user intent to a unit-norm query vector.
// Deterministic and pure given fixed weights.
func (m *Model) EncodeQuery(intent domain.Intent) domain.Vector {
	v := m.query.content(
		intent.Gender, string(intent.Usage), intent.ArticleType, string(intent.Season),
	)
	return domain.Normalize(v)
}

// EncodeCandidate maps a catalog item to a unit-norm candidate vector.
// The item id contributes through a learned projection summed with the
// categorical content vector.
func (m *Model) EncodeCandidate(item domain.CatalogItem) domain.Vector {
	v := m.candidate.content(
		item.Gender, string(item.Usage), item.ArticleType, string(item.Season),
	)
	idVec := m.candidate.idProj.forward(m.candidate.id.lookup(item.ID), false)
	for i := range v {
		v[i] += idVec[i]
	}
	return domain.Normalize(v)
}
