package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/fitstile/endian"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/tiled"
)

func TestRunStat(t *testing.T) {
	pixels := make([]int16, 40*30)
	for i := range pixels {
		pixels[i] = int16(i % 97)
	}
	data := make([]byte, len(pixels)*2)
	require.NoError(t, format.EncodePixels(endian.GetFITSEngine(), data, pixels))

	var out bytes.Buffer
	opts := []tiled.Option{tiled.WithAlgorithm(format.CompressionRice1), tiled.WithTileShape(20, 10)}
	require.NoError(t, runStat(context.Background(), 16, data, endian.GetFITSEngine(), []int{40, 30}, opts, &out))
	require.Contains(t, out.String(), "RICE_1")
	require.Regexp(t, `max abs error +0\n`, out.String())

	err := runStat(context.Background(), 16, data[:10], endian.GetFITSEngine(), []int{40, 30}, opts, &out)
	require.Error(t, err)

	err = runStat(context.Background(), 12, data, endian.GetFITSEngine(), []int{40, 30}, opts, &out)
	require.Error(t, err)
}
