package compress

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/arloliu/fitstile/errs"
	"github.com/stretchr/testify/require"
)

func fakeProvider(name string, priority int, calls *[]string, fail bool) StreamProvider {
	return StreamProvider{
		Name:     name,
		Priority: priority,
		Magic:    [2]byte{0xAB, 0xCD},
		Decompress: func(_ context.Context, data []byte) ([]byte, error) {
			*calls = append(*calls, name)
			if fail {
				return nil, errors.New(name + " unavailable")
			}

			return []byte(name), nil
		},
	}
}

func TestStreamRegistry_PriorityOrder(t *testing.T) {
	var calls []string
	reg, err := NewStreamRegistry([]StreamProvider{
		fakeProvider("low", 5, &calls, false),
		fakeProvider("high", 10, &calls, false),
	})
	require.NoError(t, err)

	for range 3 {
		out, err := reg.Decompress(context.Background(), []byte{0xAB, 0xCD, 0x00})
		require.NoError(t, err)
		require.Equal(t, "high", string(out))
	}
	require.Equal(t, []string{"high", "high", "high"}, calls)
}

func TestStreamRegistry_FallbackOnFailure(t *testing.T) {
	var (
		calls []string
		logs  bytes.Buffer
	)
	reg, err := NewStreamRegistry([]StreamProvider{
		fakeProvider("high", 10, &calls, true),
		fakeProvider("low", 5, &calls, false),
	}, WithStreamLogger(log.New(&logs, "", 0)))
	require.NoError(t, err)

	out, err := reg.Decompress(context.Background(), []byte{0xAB, 0xCD})
	require.NoError(t, err)
	require.Equal(t, "low", string(out))
	require.Equal(t, []string{"high", "low"}, calls)
	require.Contains(t, logs.String(), "high unavailable")
}

func TestStreamRegistry_AllFail(t *testing.T) {
	var calls []string
	reg, err := NewStreamRegistry([]StreamProvider{
		fakeProvider("a", 10, &calls, true),
		fakeProvider("b", 10, &calls, true),
	})
	require.NoError(t, err)

	_, err = reg.Decompress(context.Background(), []byte{0xAB, 0xCD})
	require.ErrorIs(t, err, errs.ErrNoStreamProvider)
	require.Contains(t, err.Error(), "a unavailable")
	require.Contains(t, err.Error(), "b unavailable")
	// Equal priorities keep registration order.
	require.Equal(t, []string{"a", "b"}, calls)
}

func TestStreamRegistry_NoClaim(t *testing.T) {
	reg, err := NewStreamRegistry(DefaultStreamProviders())
	require.NoError(t, err)

	_, err = reg.Decompress(context.Background(), []byte("SIMPLE  =                    T"))
	require.ErrorIs(t, err, errs.ErrNoStreamProvider)

	_, err = reg.Decompress(context.Background(), []byte{0x1F})
	require.ErrorIs(t, err, errs.ErrNoStreamProvider)

	_, err = NewStreamRegistry([]StreamProvider{{Name: "broken"}})
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestStreamRegistry_Cancelled(t *testing.T) {
	var calls []string
	reg, err := NewStreamRegistry([]StreamProvider{fakeProvider("a", 1, &calls, false)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = reg.Decompress(ctx, []byte{0xAB, 0xCD})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, calls)
}

func TestDefaultStreamProviders_RoundTrip(t *testing.T) {
	reg, err := NewStreamRegistry(DefaultStreamProviders())
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("SIMPLE  =                    T / FITS"), 200)
	for _, p := range reg.Providers() {
		if p.Compress == nil {
			continue
		}
		t.Run(p.Name, func(t *testing.T) {
			wrapped, err := p.Compress(payload)
			require.NoError(t, err)
			require.True(t, p.Provides(wrapped[0], wrapped[1]), "% x", wrapped[:2])

			out, err := reg.Decompress(context.Background(), wrapped)
			require.NoError(t, err)
			require.Equal(t, payload, out)
		})
	}
}

func TestDefaultStreamProviders_Order(t *testing.T) {
	reg, err := NewStreamRegistry(DefaultStreamProviders())
	require.NoError(t, err)

	gz := reg.Find(0x1F, 0x8B)
	require.Len(t, gz, 2)
	require.Equal(t, "gzip", gz[0].Name)
	require.Equal(t, "gzip-external", gz[1].Name)
}

func TestExternalProvider_MissingTool(t *testing.T) {
	p := ExternalProvider("missing", 1, [2]byte{0x1F, 0x8B}, "fitstile-no-such-tool")
	_, err := p.Decompress(context.Background(), []byte{0x1F, 0x8B})
	require.Error(t, err)
}
