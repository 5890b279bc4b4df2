package tile

import (
	"testing"

	"github.com/arloliu/fitstile/errs"
	"github.com/stretchr/testify/require"
)

func TestPartition_Coverage(t *testing.T) {
	axes := []int{10, 7}
	tiles, err := Partition(axes, []int{4, 3})
	require.NoError(t, err)
	require.Len(t, tiles, 3*3)

	seen := make([]int, 10*7)
	for i, d := range tiles {
		require.Equal(t, i, d.Index)
		for y := d.Origin[1]; y < d.Origin[1]+d.Size[1]; y++ {
			for x := d.Origin[0]; x < d.Origin[0]+d.Size[0]; x++ {
				seen[y*10+x]++
			}
		}
	}
	for _, n := range seen {
		require.Equal(t, 1, n)
	}

	// Fastest axis first, edge tiles clamped.
	require.Equal(t, []int{8, 0}, tiles[2].Origin)
	require.Equal(t, []int{2, 3}, tiles[2].Size)
	require.Equal(t, []int{4, 3}, tiles[4].Origin)
	require.Equal(t, []int{2, 1}, tiles[8].Size)
}

func TestPartition_Defaults(t *testing.T) {
	tiles, err := Partition([]int{5, 3}, []int{5})
	require.NoError(t, err)
	require.Len(t, tiles, 3)
	require.Equal(t, []int{5, 1}, tiles[0].Size)

	tiles, err = Partition([]int{5, 3}, []int{100, 100})
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	require.Equal(t, 15, tiles[0].Len())
}

func TestPartition_Errors(t *testing.T) {
	_, err := Partition(nil, nil)
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = Partition([]int{4, 0}, []int{2, 2})
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = Partition([]int{4, 4}, []int{2, 0})
	require.ErrorIs(t, err, errs.ErrInvalidTileSize)

	_, err = Partition([]int{4}, []int{2, 2})
	require.ErrorIs(t, err, errs.ErrInvalidTileSize)

	_, err = PartitionStrict([]int{10, 4}, []int{4, 2})
	require.ErrorIs(t, err, errs.ErrInvalidTileSize)

	tiles, err := PartitionStrict([]int{8, 4}, []int{4, 2})
	require.NoError(t, err)
	require.Len(t, tiles, 4)
}

func TestRegion_3D(t *testing.T) {
	axes := []int{4, 3, 2}
	img := ramp(4 * 3 * 2)

	tiles, err := Partition(axes, []int{2, 3, 2})
	require.NoError(t, err)
	require.Len(t, tiles, 2)

	r, err := NewRegion(img, axes, tiles[1])
	require.NoError(t, err)
	require.Len(t, r.Planes(), 2)
	require.Equal(t, 12, r.Len())

	got := make([]int32, r.Len())
	require.NoError(t, r.Extract(got))
	require.Equal(t, []int32{2, 3, 6, 7, 10, 11, 14, 15, 18, 19, 22, 23}, got)

	for i := range got {
		got[i] = -got[i]
	}
	require.NoError(t, r.Store(got))
	require.Equal(t, int32(-23), img[23])
	require.Equal(t, int32(0), img[0])
	require.Equal(t, int32(1), img[1])
}

func TestRegion_Errors(t *testing.T) {
	img := ramp(12)
	d := Descriptor{Origin: []int{0}, Size: []int{2}}
	_, err := NewRegion(img, []int{4, 3}, d)
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	d = Descriptor{Origin: []int{0, 0}, Size: []int{2, 2}}
	_, err = NewRegion(img[:10], []int{4, 3}, d)
	require.ErrorIs(t, err, errs.ErrBufferSizeMismatch)
}
