package lottietex

import (
	"sync"

	"github.com/google/uuid"
)

type AssetId string

type TextureFormat uint32

const (
	TextureFormatR8Uint         TextureFormat = 0x00000003
	TextureFormatRGBA8Unorm     TextureFormat = 0x00000012
	TextureFormatRGBA8UnormSrgb TextureFormat = 0x00000013
	TextureFormatRGBA8Uint      TextureFormat = 0x00000015
)

// AssetServer stores CPU-side texture and sampler assets. A renderer
// compares asset versions to decide what to re-upload.
type AssetServer struct {
	mu       sync.RWMutex
	textures map[AssetId]TextureAsset
	samplers map[AssetId]SamplerAsset
}

type AssetServerModule struct{}

type TextureAsset struct {
	Version uint
	Texels  []uint8
	Width   uint32
	Height  uint32
	Format  TextureFormat
}

type SamplerAsset struct {
	Version uint
	Policy  SamplingPolicy
}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		textures: make(map[AssetId]TextureAsset),
		samplers: make(map[AssetId]SamplerAsset),
	}
}

func (server *AssetServer) CreateTexture(texels []uint8, texWidth uint32, texHeight uint32, format TextureFormat) AssetId {
	id := makeAssetId()
	server.putTexture(id, texels, texWidth, texHeight, format)
	return id
}

func (server *AssetServer) putTexture(id AssetId, texels []uint8, texWidth uint32, texHeight uint32, format TextureFormat) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.textures[id] = TextureAsset{
		Version: 0,
		Texels:  texels,
		Width:   texWidth,
		Height:  texHeight,
		Format:  format,
	}
}

// UpdateTexture lets fn rewrite the texels in place and bumps the version.
// It reports false for unknown ids.
func (server *AssetServer) UpdateTexture(id AssetId, fn func(texels []uint8)) bool {
	server.mu.Lock()
	defer server.mu.Unlock()
	asset, ok := server.textures[id]
	if !ok {
		return false
	}
	fn(asset.Texels)
	asset.Version++
	server.textures[id] = asset
	return true
}

func (server *AssetServer) Texture(id AssetId) (TextureAsset, bool) {
	server.mu.RLock()
	defer server.mu.RUnlock()
	asset, ok := server.textures[id]
	return asset, ok
}

func (server *AssetServer) RemoveTexture(id AssetId) {
	server.mu.Lock()
	delete(server.textures, id)
	server.mu.Unlock()
}

func (server *AssetServer) CreateSampler(policy SamplingPolicy) AssetId {
	id := makeAssetId()
	server.putSampler(id, policy)
	return id
}

func (server *AssetServer) putSampler(id AssetId, policy SamplingPolicy) {
	server.mu.Lock()
	server.samplers[id] = SamplerAsset{Version: 0, Policy: policy}
	server.mu.Unlock()
}

func (server *AssetServer) Sampler(id AssetId) (SamplerAsset, bool) {
	server.mu.RLock()
	defer server.mu.RUnlock()
	asset, ok := server.samplers[id]
	return asset, ok
}

func (server *AssetServer) RemoveSampler(id AssetId) {
	server.mu.Lock()
	delete(server.samplers, id)
	server.mu.Unlock()
}

func (server *AssetServer) TextureCount() int {
	server.mu.RLock()
	defer server.mu.RUnlock()
	return len(server.textures)
}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	app.addResources(NewAssetServer())
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
