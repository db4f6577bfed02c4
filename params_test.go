package diskbloom

import (
	"testing"

	requireLib "github.com/stretchr/testify/require"
)

func TestCalculateHashesMemSize(t *testing.T) {
	cases := []struct {
		errorRate    float64
		hashesNumber uint32
		bitsPerItem  uint64
	}{
		{errorRate: 0.5, hashesNumber: 1, bitsPerItem: 2},
		{errorRate: 0.1, hashesNumber: 4, bitsPerItem: 5},
		{errorRate: 1e-2, hashesNumber: 7, bitsPerItem: 10},
		{errorRate: 0.001, hashesNumber: 10, bitsPerItem: 15},
		{errorRate: 1e-10, hashesNumber: 34, bitsPerItem: 48},
	}
	for _, c := range cases {
		hashesNumber, bitsPerItem := CalculateHashesMemSize(c.errorRate)
		requireLib.Equalf(t, c.hashesNumber, hashesNumber, "hashes number for %v", c.errorRate)
		requireLib.Equalf(t, c.bitsPerItem, bitsPerItem, "bits per item for %v", c.errorRate)
	}
}

func TestFilterParams(t *testing.T) {
	t.Run("table size", func(t *testing.T) {
		require := requireLib.New(t)
		fp := FilterParams{Items: 1000, ErrorRate: 0.01}
		require.NoError(fp.Validate())
		require.EqualValues(10000, fp.TableSize())
		require.InDelta(10000.0/8/1024/1024, fp.SpaceMB(), 1e-12)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, fp := range []FilterParams{
			{Items: 0, ErrorRate: 0.01},
			{Items: 10, ErrorRate: 0},
			{Items: 10, ErrorRate: 1},
			{Items: 10, ErrorRate: -0.5},
			{Items: 10, ErrorRate: 2},
		} {
			err := fp.Validate()
			requireLib.Errorf(t, err, "params %+v expected to be rejected", fp)
			requireLib.True(t, IsInvalidParams(err))
		}
	})
}
