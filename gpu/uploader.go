// Package gpu mirrors live animation textures into WebGPU textures.
package gpu

import (
	"fmt"
	"image"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/lottietex"
)

// TextureSource is what the uploader needs from a live texture.
type TextureSource interface {
	ID() string
	Width() int
	Height() int
	Sampling() lottietex.SamplingPolicy
	ConsumeUpdate() bool
	ReadPixels(fn func(src *image.RGBA)) error
	Disposed() bool
}

type Binding struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Sampler *wgpu.Sampler
	Width   uint32
	Height  uint32
	// Uploads counts WriteTexture calls for this binding.
	Uploads uint64
}

// Uploader owns one GPU texture and sampler per live texture. Sync is
// meant to be called once per render tick from the render goroutine.
type Uploader struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	mu       sync.Mutex
	bindings map[string]*Binding
	staging  []uint8
}

func NewUploader(device *wgpu.Device, queue *wgpu.Queue) *Uploader {
	return &Uploader{
		device:   device,
		queue:    queue,
		bindings: make(map[string]*Binding),
	}
}

// Sync creates the GPU resources for tex on first use and re-uploads its
// pixels when the texture is dirty. Disposed textures are released.
func (u *Uploader) Sync(tex TextureSource) (*Binding, error) {
	if tex.Disposed() {
		u.Release(tex)
		return nil, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	b, ok := u.bindings[tex.ID()]
	if !ok {
		var err error
		b, err = u.createBinding(tex)
		if err != nil {
			return nil, err
		}
		u.bindings[tex.ID()] = b
	}

	if !tex.ConsumeUpdate() {
		return b, nil
	}
	if err := u.upload(tex, b); err != nil {
		return b, err
	}
	return b, nil
}

func (u *Uploader) createBinding(tex TextureSource) (*Binding, error) {
	w, h := uint32(tex.Width()), uint32(tex.Height())
	policy := tex.Sampling()

	texture, err := u.device.CreateTexture(TextureDescriptor(tex.ID(), w, h, policy))
	if err != nil {
		return nil, fmt.Errorf("failed to create texture for %s: %w", tex.ID(), err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("failed to create texture view for %s: %w", tex.ID(), err)
	}
	sampler, err := u.device.CreateSampler(SamplerDescriptor(policy))
	if err != nil {
		view.Release()
		texture.Release()
		return nil, fmt.Errorf("failed to create sampler for %s: %w", tex.ID(), err)
	}
	return &Binding{Texture: texture, View: view, Sampler: sampler, Width: w, Height: h}, nil
}

func (u *Uploader) upload(tex TextureSource, b *Binding) error {
	size := int(b.Width * b.Height * 4)
	if cap(u.staging) < size {
		u.staging = make([]uint8, size)
	}
	texels := u.staging[:size]

	err := tex.ReadPixels(func(src *image.RGBA) {
		packRows(texels, src)
	})
	if err != nil {
		return err
	}

	extent := wgpu.Extent3D{Width: b.Width, Height: b.Height, DepthOrArrayLayers: 1}
	err = u.queue.WriteTexture(
		b.Texture.AsImageCopy(),
		texels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  b.Width * 4,
			RowsPerImage: b.Height,
		},
		&extent,
	)
	if err != nil {
		return fmt.Errorf("failed to write texture %s: %w", tex.ID(), err)
	}
	b.Uploads++
	return nil
}

// Release frees the GPU resources held for tex. Safe to call repeatedly.
func (u *Uploader) Release(tex TextureSource) {
	u.mu.Lock()
	b, ok := u.bindings[tex.ID()]
	delete(u.bindings, tex.ID())
	u.mu.Unlock()
	if !ok {
		return
	}
	b.Sampler.Release()
	b.View.Release()
	b.Texture.Release()
}

// ReleaseAll frees every binding.
func (u *Uploader) ReleaseAll() {
	u.mu.Lock()
	bindings := u.bindings
	u.bindings = make(map[string]*Binding)
	u.mu.Unlock()
	for _, b := range bindings {
		b.Sampler.Release()
		b.View.Release()
		b.Texture.Release()
	}
}

func TextureDescriptor(label string, width, height uint32, policy lottietex.SamplingPolicy) *wgpu.TextureDescriptor {
	return &wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        TextureFormat(policy),
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	}
}

func TextureFormat(policy lottietex.SamplingPolicy) wgpu.TextureFormat {
	if policy.ColorSpace == lottietex.ColorSpaceSRGB {
		return wgpu.TextureFormatRGBA8UnormSrgb
	}
	return wgpu.TextureFormatRGBA8Unorm
}

func SamplerDescriptor(policy lottietex.SamplingPolicy) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filterMode(policy.MagFilter),
		MinFilter:     filterMode(policy.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0.,
		LodMaxClamp:   1.,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	}
}

func filterMode(m lottietex.FilterMode) wgpu.FilterMode {
	if m == lottietex.FilterLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

func packRows(dst []uint8, src *image.RGBA) {
	b := src.Bounds()
	rowBytes := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		start := y * rowBytes
		if start+rowBytes > len(dst) {
			return
		}
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst[start:start+rowBytes], src.Pix[off:off+rowBytes])
	}
}
