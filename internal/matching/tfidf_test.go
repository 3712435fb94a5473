package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitSpace_SmoothedIDF(t *testing.T) {
	space := FitSpace([][]string{
		{"python", "sql"},
		{"python"},
	}, VectorOptions{})

	require.Equal(t, 2, space.Len())
	assert.InDelta(t, 1.0, space.idf[space.vocab["python"]], 1e-12)
	assert.InDelta(t, math.Log(3.0/2.0)+1, space.idf[space.vocab["sql"]], 1e-12)
}

func TestTransform_Normalized(t *testing.T) {
	space := FitSpace([][]string{{"python", "python", "sql"}, {"java"}}, VectorOptions{})

	vec := space.Transform([]string{"python", "python", "sql", "unknown"})
	assert.InDelta(t, 1.0, vec.Norm(), 1e-12)
	assert.Len(t, vec, 2)

	assert.Empty(t, space.Transform(nil))
	assert.Empty(t, space.Transform([]string{"unknown"}))
}

func TestTransform_SublinearTF(t *testing.T) {
	corpus := [][]string{{"python", "python", "python", "sql"}, {"sql"}}
	raw := FitSpace(corpus, VectorOptions{}).Transform(corpus[0])
	sub := FitSpace(corpus, VectorOptions{SublinearTF: true}).Transform(corpus[0])

	assert.Greater(t, raw[0].weight, sub[0].weight)
}

func TestCosine(t *testing.T) {
	space := FitSpace([][]string{{"python", "sql"}, {"photoshop"}}, VectorOptions{})

	a := space.Transform([]string{"python", "sql"})
	b := space.Transform([]string{"photoshop"})

	assert.InDelta(t, 1.0, Cosine(a, a), 1e-12)
	assert.Equal(t, 0.0, Cosine(a, b))
	assert.Equal(t, 0.0, Cosine(a, nil))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestScaleScore(t *testing.T) {
	assert.Equal(t, 100.0, ScaleScore(1))
	assert.Equal(t, 0.0, ScaleScore(0))
	assert.Equal(t, 53.63, ScaleScore(0.536312))
}
