package encoder

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/attire/internal/domain"
)

// Weights file schema. Embedding tables carry one extra leading row for
// out-of-vocabulary tokens; dense kernels are stored row-major as
// (input x output), matching the training framework's export.

type tableSpec struct {
	Vocab   []string    `json:"vocab"`
	Weights [][]float32 `json:"weights"`
}

type denseSpec struct {
	Weights [][]float32 `json:"weights"`
	Bias    []float32   `json:"bias"`
}

type towerSpec struct {
	Gender       tableSpec  `json:"gender"`
	Usage        tableSpec  `json:"usage"`
	ArticleType  tableSpec  `json:"article_type"`
	Season       tableSpec  `json:"season"`
	ID           *tableSpec `json:"id,omitempty"`
	IDProjection *denseSpec `json:"id_projection,omitempty"`
	Hidden       denseSpec  `json:"hidden"`
	Output       denseSpec  `json:"output"`
}

type weightsFile struct {
	Dimension int       `json:"dimension"`
	Query     towerSpec `json:"query"`
	Candidate towerSpec `json:"candidate"`
}

// Load reads and validates a weights file and builds both towers.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidWeights, path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("weights file %s: %w", path, err)
	}
	return m, nil
}

// Parse builds a model from raw weights file content.
func Parse(data []byte) (*Model, error) {
	var wf weightsFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidWeights, err)
	}

	dim := wf.Dimension
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidWeights, dim)
	}

	q, err := buildTower(&wf.Query, dim, false)
	if err != nil {
		return nil, fmt.Errorf("%w: query tower: %w", domain.ErrInvalidWeights, err)
	}
	c, err := buildTower(&wf.Candidate, dim, true)
	if err != nil {
		return nil, fmt.Errorf("%w: candidate tower: %w", domain.ErrInvalidWeights, err)
	}

	return &Model{dim: dim, query: q, candidate: c}, nil
}

func buildTower(spec *towerSpec, dim int, withID bool) (*tower, error) {
	t := &tower{}

	var err error
	fields := []struct {
		name string
		spec *tableSpec
		dst  **table
	}{
		{"gender", &spec.Gender, &t.gender},
		{"usage", &spec.Usage, &t.usage},
		{"article_type", &spec.ArticleType, &t.articleType},
		{"season", &spec.Season, &t.season},
	}
	for _, f := range fields {
		if *f.dst, err = buildTable(f.spec, dim); err != nil {
			return nil, fmt.Errorf("%s table: %w", f.name, err)
		}
	}

	concatDim := 4 * dim
	if t.hidden, err = buildDense(&spec.Hidden, concatDim, 0); err != nil {
		return nil, fmt.Errorf("hidden layer: %w", err)
	}
	if t.output, err = buildDense(&spec.Output, t.hidden.outDim(), dim); err != nil {
		return nil, fmt.Errorf("output layer: %w", err)
	}

	if !withID {
		if spec.ID != nil || spec.IDProjection != nil {
			return nil, fmt.Errorf("id weights present on query tower")
		}
		return t, nil
	}

	if spec.ID == nil || spec.IDProjection == nil {
		return nil, fmt.Errorf("candidate tower requires id table and id_projection")
	}
	idDim := 0
	if len(spec.ID.Weights) > 0 {
		idDim = len(spec.ID.Weights[0])
	}
	if t.id, err = buildTable(spec.ID, idDim); err != nil {
		return nil, fmt.Errorf("id table: %w", err)
	}
	if t.idProj, err = buildDense(spec.IDProjection, idDim, dim); err != nil {
		return nil, fmt.Errorf("id_projection: %w", err)
	}
	return t, nil
}

func buildTable(spec *tableSpec, dim int) (*table, error) {
	if len(spec.Weights) != len(spec.Vocab)+1 {
		return nil, fmt.Errorf("expected %d rows (vocab + oov), got %d",
			len(spec.Vocab)+1, len(spec.Weights))
	}
	for i, row := range spec.Weights {
		if len(row) != dim {
			return nil, fmt.Errorf("row %d: expected width %d, got %d", i, dim, len(row))
		}
	}
	idx := make(map[string]int, len(spec.Vocab))
	for i, tok := range spec.Vocab {
		idx[tok] = i + 1 // row 0 is the OOV embedding
	}
	return &table{index: idx, rows: spec.Weights}, nil
}

// buildDense validates a dense layer. wantOut == 0 skips the output check
// (the hidden width is free).
func buildDense(spec *denseSpec, wantIn, wantOut int) (*dense, error) {
	if len(spec.Weights) != wantIn {
		return nil, fmt.Errorf("expected %d input rows, got %d", wantIn, len(spec.Weights))
	}
	out := len(spec.Bias)
	if out == 0 {
		return nil, fmt.Errorf("empty bias")
	}
	if wantOut != 0 && out != wantOut {
		return nil, fmt.Errorf("expected %d outputs, got %d", wantOut, out)
	}
	for i, row := range spec.Weights {
		if len(row) != out {
			return nil, fmt.Errorf("kernel row %d: expected width %d, got %d", i, out, len(row))
		}
	}
	return &dense{w: spec.Weights, b: spec.Bias}, nil
}
