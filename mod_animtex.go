package lottietex

import (
	"image"
	"sync"
)

// AnimationTextureModule installs a Loader and the AnimatedTextures
// registry, and syncs bound live textures into the AssetServer once per
// tick in PreRender. Requires AssetServerModule.
type AnimationTextureModule struct {
	Engine   Engine
	Fetcher  Fetcher
	Document Document
	Config   BridgeConfig
	// Path is the base path for relative animation URLs.
	Path string
}

func (m AnimationTextureModule) Install(app *App, cmd *Commands) {
	cfg := m.Config
	if cfg.Quality == 0 {
		cfg.Quality = 1
	}
	if cfg.FrameThrottle == 0 {
		cfg.FrameThrottle = 1
	}
	logger := app.Logger()

	loader, err := NewLoader(m.Engine,
		WithConfig(cfg),
		WithFetcher(m.Fetcher),
		WithDocument(m.Document),
		WithLogger(logger),
	)
	if err != nil {
		panic(err)
	}
	loader.SetPath(m.Path)

	app.addResources(loader, &AnimatedTextures{logger: logger})
	app.UseSystem(System(animatedTextureSyncSystem).InStage(PreRender))
}

type animatedBinding struct {
	tex       *LiveTexture
	textureId AssetId
	samplerId AssetId
	created   bool
}

// AnimatedTextures maps live textures to texture assets. Bind is safe to
// call from load callbacks; assets are created on the app goroutine.
type AnimatedTextures struct {
	logger Logger

	mu       sync.Mutex
	bindings []*animatedBinding
}

// Bind registers tex and returns the ids of the texture asset and sampler
// that will mirror it from the next sync on.
func (a *AnimatedTextures) Bind(tex *LiveTexture) (textureId AssetId, samplerId AssetId) {
	b := &animatedBinding{
		tex:       tex,
		textureId: makeAssetId(),
		samplerId: makeAssetId(),
	}
	a.mu.Lock()
	a.bindings = append(a.bindings, b)
	a.mu.Unlock()
	return b.textureId, b.samplerId
}

func (a *AnimatedTextures) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bindings)
}

func animatedTextureSyncSystem(textures *AnimatedTextures, assets *AssetServer) {
	textures.mu.Lock()
	bindings := textures.bindings
	kept := bindings[:0]
	var dropped []*animatedBinding
	for _, b := range bindings {
		if b.tex.Disposed() {
			dropped = append(dropped, b)
			continue
		}
		kept = append(kept, b)
	}
	for i := len(kept); i < len(bindings); i++ {
		bindings[i] = nil
	}
	textures.bindings = kept
	textures.mu.Unlock()

	for _, b := range dropped {
		assets.RemoveTexture(b.textureId)
		assets.RemoveSampler(b.samplerId)
		textures.logger.Debugf("lottie %s: unbound texture %s", b.tex.ID(), b.textureId)
	}

	for _, b := range kept {
		if !b.created {
			w, h := b.tex.Width(), b.tex.Height()
			assets.putTexture(b.textureId, make([]uint8, w*h*4), uint32(w), uint32(h), TextureFormatRGBA8UnormSrgb)
			assets.putSampler(b.samplerId, b.tex.Sampling())
			b.created = true
		}
		if !b.tex.ConsumeUpdate() {
			continue
		}
		assets.UpdateTexture(b.textureId, func(texels []uint8) {
			err := b.tex.ReadPixels(func(src *image.RGBA) {
				copyPixels(texels, src)
			})
			if err != nil {
				textures.logger.Warnf("lottie %s: skipped upload: %v", b.tex.ID(), err)
			}
		})
	}
}

// copyPixels packs src rows tightly into dst.
func copyPixels(dst []uint8, src *image.RGBA) {
	b := src.Bounds()
	rowBytes := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		start := y * rowBytes
		if start+rowBytes > len(dst) {
			return
		}
		copy(dst[start:start+rowBytes], src.Pix[off:off+rowBytes])
	}
}
