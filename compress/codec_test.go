package compress

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/stretchr/testify/require"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"Gzip": NewGzipCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionGzip1, format.CompressionZstd,
		format.CompressionLZ4, format.CompressionS2,
	} {
		codec, err := CreateCodec(ct, "mask")
		require.NoError(t, err, ct.String())
		require.NotNil(t, codec)

		builtin, err := GetCodec(ct)
		require.NoError(t, err)
		require.IsType(t, codec, builtin)
	}

	_, err := CreateCodec(format.CompressionRice1, "mask")
	require.ErrorIs(t, err, errs.ErrUnknownAlgorithm)
	require.Contains(t, err.Error(), "mask")

	_, err = GetCodec(format.CompressionHCompress)
	require.ErrorIs(t, err, errs.ErrUnknownAlgorithm)
}

func TestCompressionStats_Calculations(t *testing.T) {
	tests := []struct {
		name          string
		stats         CompressionStats
		expectedRatio float64
		expectedSave  float64
	}{
		{
			name:          "half size",
			stats:         CompressionStats{OriginalSize: 1000, CompressedSize: 500},
			expectedRatio: 0.5,
			expectedSave:  50,
		},
		{
			name:          "no gain",
			stats:         CompressionStats{OriginalSize: 1000, CompressedSize: 1000},
			expectedRatio: 1,
			expectedSave:  0,
		},
		{
			name:          "empty",
			stats:         CompressionStats{},
			expectedRatio: 0,
			expectedSave:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.expectedRatio, tt.stats.CompressionRatio(), 1e-9)
			require.InDelta(t, tt.expectedSave, tt.stats.SpaceSavings(), 1e-9)
		})
	}
}

// TestAllCodecs_EmptyData tests that all codecs handle empty data correctly
func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Nil(t, compressed, "Compressing nil should return nil")

			decompressed, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Nil(t, decompressed, "Decompressing nil should return nil")

			compressed, err = codec.Compress([]byte{})
			require.NoError(t, err)
			require.Empty(t, compressed, "Compressing empty input should not emit a frame")

			decompressed, err = codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

// TestAllCodecs_RoundTrip tests compression and decompression round-trip for all codecs
func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "single_byte", data: []byte{0x42}},
		{name: "binary_data", data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC}},
		{name: "repeated_pattern", data: bytes.Repeat([]byte("ABCD"), 100)},
		{
			name: "int16_gradient",
			data: func() []byte {
				data := make([]byte, 2*128*128)
				for i := range 128 * 128 {
					v := uint16(1000 + i%128 + i/128)
					data[2*i], data[2*i+1] = byte(v>>8), byte(v)
				}

				return data
			}(),
		},
		{name: "highly_compressible", data: make([]byte, 1024*1024)},
		{
			name: "noise",
			data: func() []byte {
				data := make([]byte, 4096)
				rand.New(rand.NewSource(5)).Read(data)

				return data
			}(),
		},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotNil(t, compressed)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed, "Decompressed data must match original")
				})
			}
		})
	}
}

// TestAllCodecs_InvalidData tests that all codecs reject data they did not produce
func TestAllCodecs_InvalidData(t *testing.T) {
	invalidInputs := []struct {
		name string
		data []byte
	}{
		{name: "random_bytes", data: []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{name: "text_as_compressed", data: []byte("this is not compressed data")},
		{name: "corrupted_header", data: []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			if codecName == "NoOp" {
				t.Skip("NoOp codec doesn't validate data")
			}

			for _, input := range invalidInputs {
				t.Run(input.name, func(t *testing.T) {
					_, err := codec.Decompress(input.data)
					require.Error(t, err)
				})
			}
		})
	}
}

// TestAllCodecs_ConcurrentUsage exercises the pooled encoders and decoders
// from many goroutines.
func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	const numGoroutines = 20
	testData := bytes.Repeat([]byte("tile payload 0123456789"), 64)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(testData)
			require.NoError(t, err)

			done := make(chan error, numGoroutines)
			for range numGoroutines {
				go func() {
					c, err := codec.Compress(testData)
					if err != nil {
						done <- err
						return
					}
					d, err := codec.Decompress(compressed)
					if err != nil {
						done <- err
						return
					}
					if !bytes.Equal(d, testData) || c == nil {
						done <- fmt.Errorf("%s: round trip mismatch", codecName)
						return
					}
					done <- nil
				}()
			}

			for range numGoroutines {
				require.NoError(t, <-done)
			}
		})
	}
}

func TestLZ4Compressor_Framing(t *testing.T) {
	codec := NewLZ4Compressor()

	noise := make([]byte, 512)
	rand.New(rand.NewSource(9)).Read(noise)
	out, err := codec.Compress(noise)
	require.NoError(t, err)
	require.Equal(t, lz4ModeRaw, out[0])
	require.Len(t, out, lz4HeaderSize+len(noise))

	out, err = codec.Compress(make([]byte, 512))
	require.NoError(t, err)
	require.Equal(t, lz4ModeBlock, out[0])

	// A stored length that disagrees with the block is rejected.
	out[4]--
	_, err = codec.Decompress(out)
	require.ErrorIs(t, err, errs.ErrCorruptData)

	_, err = codec.Decompress([]byte{lz4ModeBlock, 0x7F, 0xFF, 0xFF, 0xFF, 0x00})
	require.ErrorIs(t, err, errs.ErrCorruptData)
}
