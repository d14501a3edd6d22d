package subset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersect(t *testing.T) {
	a := New([]uint64{2, 2}, []uint64{4, 4})
	b := New([]uint64{0, 0}, []uint64{5, 3})
	got, ok := a.Intersect(b)
	require.True(t, ok)
	assert.Equal(t, []uint64{2, 2}, got.Start)
	assert.Equal(t, []uint64{3, 1}, got.Shape)

	c := New([]uint64{10, 10}, []uint64{2, 2})
	_, ok = a.Intersect(c)
	assert.False(t, ok)
}

func TestTranslate(t *testing.T) {
	s := New([]uint64{5, 7}, []uint64{2, 3})
	got := s.Translate([]uint64{5, 5})
	assert.Equal(t, []uint64{0, 2}, got.Start)
	assert.Equal(t, []uint64{2, 3}, got.Shape)
}

func TestRavelUnravelRoundTrip(t *testing.T) {
	shape := []uint64{3, 4, 5}
	for linear := uint64(0); linear < 60; linear++ {
		idx := UnravelIndex(linear, shape)
		assert.Equal(t, linear, RavelIndices(idx, shape))
	}
}

func TestExtractInsertRegionRoundTrip(t *testing.T) {
	fullShape := []uint64{4, 4}
	elemSize := 2
	data := make([]byte, 16*elemSize)
	for i := range data {
		data[i] = byte(i)
	}

	region := New([]uint64{1, 1}, []uint64{2, 3})
	extracted := ExtractRegion(data, elemSize, fullShape, region)
	require.Len(t, extracted, int(region.NumElements())*elemSize)

	out := make([]byte, len(data))
	InsertRegion(out, elemSize, fullShape, region, extracted)

	// Only the region's elements should have been written; verify by
	// re-extracting and comparing, rather than assuming the rest of out.
	reExtracted := ExtractRegion(out, elemSize, fullShape, region)
	assert.Equal(t, extracted, reExtracted)
}

func TestRunsWholeBufferIsOneRun(t *testing.T) {
	shape := []uint64{3, 4}
	whole := FromShape(shape)
	runs := Runs(whole, shape)
	require.Len(t, runs, 1)
	assert.Equal(t, uint64(0), runs[0].LinearStart)
	assert.Equal(t, uint64(12), runs[0].Length)
}

func TestRunsRowSlice(t *testing.T) {
	shape := []uint64{3, 4}
	// Two whole rows starting at row 1: the rows are memory-adjacent (each
	// spans the full row width), so they coalesce into a single run.
	region := New([]uint64{1, 0}, []uint64{2, 4})
	runs := Runs(region, shape)
	require.Len(t, runs, 1)
	assert.Equal(t, uint64(4), runs[0].LinearStart)
	assert.Equal(t, uint64(8), runs[0].Length)
}

func TestRunsPartialRowsOneRunPerRow(t *testing.T) {
	shape := []uint64{3, 4}
	region := New([]uint64{0, 1}, []uint64{2, 2})
	runs := Runs(region, shape)
	require.Len(t, runs, 2)
	assert.Equal(t, uint64(1), runs[0].LinearStart)
	assert.Equal(t, uint64(2), runs[0].Length)
	assert.Equal(t, uint64(5), runs[1].LinearStart)
}

func TestValidateWithin(t *testing.T) {
	s := New([]uint64{0, 0}, []uint64{3, 3})
	assert.NoError(t, s.ValidateWithin([]uint64{4, 4}))
	assert.Error(t, s.ValidateWithin([]uint64{2, 4}))
	assert.Error(t, s.ValidateWithin([]uint64{4, 4, 4}))
}
