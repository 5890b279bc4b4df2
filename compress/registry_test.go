package compress

import (
	"testing"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/stretchr/testify/require"
)

type taggedControl struct {
	Control
	tag string
}

func TestRegistry_FindControl(t *testing.T) {
	first := taggedControl{Control: NewByteControl(NewGzipCompressor()), tag: "first"}
	second := taggedControl{Control: NewByteControl(NewGzipCompressor()), tag: "second"}

	reg, err := NewRegistry([]Descriptor{
		{Name: "gzip-a", Algorithm: format.CompressionGzip1, Control: first},
		{Name: "gzip-b", Algorithm: format.CompressionGzip1, Control: second},
		{Name: "rice", Algorithm: format.CompressionRice1, Kinds: integerKinds, Control: riceControl{}},
	})
	require.NoError(t, err)

	ctrl, err := reg.FindControl("", format.CompressionGzip1, format.KindInt16)
	require.NoError(t, err)
	require.Equal(t, "first", ctrl.(taggedControl).tag)

	ctrl, err = reg.FindControl("gzip-b", format.CompressionGzip1, format.KindInt16)
	require.NoError(t, err)
	require.Equal(t, "second", ctrl.(taggedControl).tag)

	// A preferred name of another algorithm does not change the result.
	ctrl, err = reg.FindControl("rice", format.CompressionGzip1, format.KindInt16)
	require.NoError(t, err)
	require.Equal(t, "first", ctrl.(taggedControl).tag)

	_, err = reg.FindControl("", format.CompressionRice1, format.KindFloat32)
	require.ErrorIs(t, err, errs.ErrUnsupportedElement)

	_, err = reg.FindControl("", format.CompressionHCompress, format.KindInt16)
	require.ErrorIs(t, err, errs.ErrUnknownAlgorithm)

	_, err = reg.FindControl("", format.CompressionGzip1, format.KindBit)
	require.ErrorIs(t, err, errs.ErrUnsupportedElement)
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := NewRegistry([]Descriptor{{Name: "x", Algorithm: format.CompressionGzip1}})
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	ctrl := NewByteControl(NewNoOpCompressor())
	_, err = NewRegistry([]Descriptor{
		{Name: "x", Algorithm: format.CompressionNone, Control: ctrl},
		{Name: "x", Algorithm: format.CompressionGzip1, Control: ctrl},
	})
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestRegistry_DescriptorsAreCopied(t *testing.T) {
	descs := DefaultDescriptors()
	reg, err := NewRegistry(descs)
	require.NoError(t, err)

	descs[0].Name = "changed"
	got := reg.Descriptors()
	require.Equal(t, "nocompress", got[0].Name)

	got[1].Name = "changed"
	require.Equal(t, "gzip", reg.Descriptors()[1].Name)
	require.Same(t, DefaultRegistry(), DefaultRegistry())
}
