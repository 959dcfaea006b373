package fieldhash

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hdp-go/hdp/internal/field"
)

func TestHash2Deterministic(t *testing.T) {
	a := field.FromUint64(1)
	b := field.FromUint64(2)
	h1 := Default.Hash2(a, b)
	h2 := Default.Hash2(a, b)
	assert.True(t, h1.Equal(h2))
}

func TestHash2SensitiveToOrder(t *testing.T) {
	a := field.FromUint64(1)
	b := field.FromUint64(2)
	assert.False(t, Default.Hash2(a, b).Equal(Default.Hash2(b, a)))
}

func TestHashManyDistinctFromHash2(t *testing.T) {
	a := field.FromUint64(1)
	b := field.FromUint64(2)
	c := field.FromUint64(3)
	assert.False(t, Default.HashMany(a, b, c).Equal(Default.Hash2(a, b)))
}
