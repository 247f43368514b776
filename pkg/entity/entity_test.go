package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
)

func TestNewIsUnevaluated(t *testing.T) {
	e := entity.New(1, chromosome.Integer, 2, 4)
	assert.False(t, e.Evaluated())
	assert.Equal(t, entity.MinFitness, e.Fitness)
	require.Len(t, e.Chromosomes, 2)
	assert.Equal(t, 4, e.Chromosomes[0].Len())
}

func TestCopyFromDuplicatesGenome(t *testing.T) {
	src := entity.New(1, chromosome.Integer, 1, 3)
	src.Chromosomes[0].SetInt(0, 7)
	src.Fitness = 42

	dst := entity.New(2, chromosome.Integer, 1, 3)
	dst.CopyFrom(src, nil)

	assert.Equal(t, float64(42), dst.Fitness)
	assert.Equal(t, 7, dst.Chromosomes[0].Int(0))
	assert.NotEqual(t, src.ID, dst.ID, "CopyFrom must not clobber the destination's own ID")
}

func TestBlankResetsToUnevaluated(t *testing.T) {
	e := entity.New(1, chromosome.Double, 1, 2)
	e.Chromosomes[0].SetDouble(0, 3.5)
	e.Fitness = 10

	var destroyed bool
	e.Data = &entity.Data{Value: "phenotype"}
	e.Blank(func(*entity.Data) { destroyed = true })

	assert.True(t, destroyed)
	assert.Nil(t, e.Data)
	assert.False(t, e.Evaluated())
	assert.Equal(t, float64(0), e.Chromosomes[0].Double(0))
}

func TestCopyFromSharesDataUnderIncrementor(t *testing.T) {
	src := entity.New(1, chromosome.Boolean, 1, 1)
	src.Data = &entity.Data{Value: "shared"}

	dst := entity.New(2, chromosome.Boolean, 1, 1)
	var incremented bool
	dst.CopyFrom(src, func(*entity.Data) { incremented = true })

	assert.True(t, incremented)
	assert.Same(t, src.Data, dst.Data)
}
