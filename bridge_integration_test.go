package lottietex_test

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gekko3d/lottietex"
	"github.com/gekko3d/lottietex/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFrames = `{"v": "5.7", "nm": "two", "fr": 60, "ip": 0, "op": 2, "w": 8, "h": 8,
	"layers": [{"ty": 1, "sc": "#0000ff", "sw": 8, "sh": 8, "ks": {}}]}`

func newBridge(t *testing.T, cfg lottietex.BridgeConfig) (*lottietex.Loader, *lottietex.OffscreenDocument) {
	t.Helper()
	doc := lottietex.NewOffscreenDocument()
	fetcher := lottietex.FetcherFunc(func(ctx context.Context, url string, opts lottietex.FetchOptions, progress lottietex.ProgressFunc) ([]byte, error) {
		return []byte(twoFrames), nil
	})
	loader, err := lottietex.NewLoader(player.NewEngine(),
		lottietex.WithConfig(cfg),
		lottietex.WithFetcher(fetcher),
		lottietex.WithDocument(doc),
	)
	require.NoError(t, err)
	return loader, doc
}

func TestBridge_PlaysOnceWithSoftwarePlayer(t *testing.T) {
	loader, doc := newBridge(t, lottietex.BridgeConfig{Quality: 1, Autoplay: true, FrameThrottle: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tex, err := loader.LoadContext(ctx, lottietex.LoadRequest{URL: "two.json"})
	require.NoError(t, err)

	done := make(chan struct{}, 1)
	tex.SetOnComplete(func() { done <- struct{}{} })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("animation never completed")
	}

	// two rendered frames, each past the throttle
	assert.Equal(t, uint64(2), tex.Version())
	assert.Equal(t, uint64(2), tex.FramesObserved())
	assert.True(t, tex.NeedsUpdate())

	err = tex.ReadPixels(func(src *image.RGBA) {
		assert.Equal(t, color.RGBA{B: 255, A: 255}, src.RGBAAt(4, 4))
	})
	require.NoError(t, err)

	tex.Dispose()
	assert.Zero(t, doc.AttachedCount())
	assert.ErrorIs(t, tex.GoToAndPlay(0, true), lottietex.ErrUseAfterDispose)
}

func TestBridge_GoToAndStopMarksDirty(t *testing.T) {
	loader, _ := newBridge(t, lottietex.BridgeConfig{Quality: 2, FrameThrottle: 1})

	tex, err := loader.LoadContext(context.Background(), lottietex.LoadRequest{URL: "two.json"})
	require.NoError(t, err)
	defer tex.Dispose()

	assert.Equal(t, 16, tex.Width())
	assert.True(t, tex.ConsumeUpdate())

	require.NoError(t, tex.GoToAndStop(1, true))
	assert.Eventually(t, tex.NeedsUpdate, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(1), tex.Version())
}
