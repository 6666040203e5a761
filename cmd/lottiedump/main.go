// Command lottiedump plays a Lottie animation headless and writes every
// uploaded texture version as a PNG.
//
//	lottiedump [-config lottiedump.yaml] [-out frames] [-frames 120] [-mqtt tcp://host:1883 -topic anim/ctl] anim.json
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/gekko3d/lottietex"
	"github.com/gekko3d/lottietex/mqttctl"
	"github.com/gekko3d/lottietex/player"
	"gopkg.in/yaml.v3"
)

type mqttConfig struct {
	URL      string `yaml:"url"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"clientId"`
}

// fileConfig is the -config file: bridge settings at the top level plus
// an optional mqtt section.
type fileConfig struct {
	lottietex.BridgeConfig `yaml:",inline"`
	Mqtt                   mqttConfig `yaml:"mqtt"`
	LogLevel               string     `yaml:"logLevel"`
}

func readConfig(path string) (fileConfig, error) {
	cfg := fileConfig{
		BridgeConfig: lottietex.DefaultBridgeConfig(),
		Mqtt:         mqttConfig{Topic: "lottietex/control", ClientID: "lottiedump"},
	}
	cfg.Autoplay = true
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

type dumper struct {
	dir   string
	limit int

	mu        sync.Mutex
	textureId lottietex.AssetId
	bound     bool
	complete  bool
	failed    error

	lastVersion uint
	written     int
}

func (d *dumper) bind(id lottietex.AssetId) {
	d.mu.Lock()
	d.textureId = id
	d.bound = true
	d.mu.Unlock()
}

func (d *dumper) markComplete() {
	d.mu.Lock()
	d.complete = true
	d.mu.Unlock()
}

func (d *dumper) fail(err error) {
	d.mu.Lock()
	d.failed = err
	d.mu.Unlock()
}

func (d *dumper) state() (id lottietex.AssetId, bound bool, complete bool, failed error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textureId, d.bound, d.complete, d.failed
}

func (d *dumper) write(asset lottietex.TextureAsset) error {
	img := &image.RGBA{
		Pix:    append([]uint8(nil), asset.Texels...),
		Stride: int(asset.Width) * 4,
		Rect:   image.Rect(0, 0, int(asset.Width), int(asset.Height)),
	}
	name := filepath.Join(d.dir, fmt.Sprintf("frame_%04d.png", d.written))
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	d.written++
	return nil
}

func frameDumpSystem(d *dumper, assets *lottietex.AssetServer, clock *lottietex.Time, cmd *lottietex.Commands) {
	id, bound, complete, failed := d.state()
	logger := cmd.Logger()
	if failed != nil {
		logger.Errorf("load failed: %v", failed)
		cmd.Exit()
		return
	}
	if !bound {
		return
	}

	asset, ok := assets.Texture(id)
	if ok && asset.Version > d.lastVersion {
		d.lastVersion = asset.Version
		if err := d.write(asset); err != nil {
			logger.Errorf("%v", err)
			cmd.Exit()
			return
		}
		logger.Debugf("wrote frame %d (version %d)", d.written-1, asset.Version)
	}

	if complete {
		logger.Infof("animation complete after %d frames in %v", d.written, clock.Elapsed().Round(time.Millisecond))
		cmd.Exit()
		return
	}
	if d.limit > 0 && d.written >= d.limit {
		logger.Infof("frame limit %d reached", d.limit)
		cmd.Exit()
	}
}

// listen runs off the load callback so a slow broker never stalls frames.
func listen(cfg mqttConfig, ctrl mqttctl.Controller, logger lottietex.Logger) {
	client, err := mqttctl.Connect(cfg.URL, cfg.ClientID)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}
	if err := mqttctl.Subscribe(client, cfg.Topic, 0, ctrl, logger); err != nil {
		logger.Errorf("%v", err)
	}
}

func main() {
	configPath := flag.String("config", "", "YAML bridge config file.")
	outDir := flag.String("out", "frames", "Directory for PNG frames.")
	frames := flag.Int("frames", 300, "Stop after this many frames, 0 for no limit.")
	broker := flag.String("mqtt", "", "MQTT broker URL for remote playback control, overrides the config.")
	topic := flag.String("topic", "", "MQTT control topic, overrides the config.")
	debug := flag.Bool("debug", false, "Enable debug logging.")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lottiedump [flags] <animation url or path>")
		os.Exit(2)
	}

	cfg, err := readConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *broker != "" {
		cfg.Mqtt.URL = *broker
	}
	if *topic != "" {
		cfg.Mqtt.Topic = *topic
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := lottietex.NewApp()
	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	if _, err := lottietex.ParseLevel(level); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app.UseModules(lottietex.LoggingModule{Prefix: "lottiedump", Level: level})
	logger := app.Logger()

	app.UseModules(
		lottietex.TimeModule{},
		lottietex.AssetServerModule{},
		lottietex.AnimationTextureModule{
			Engine: player.NewEngine(player.WithLogger(logger)),
			Config: cfg.BridgeConfig,
		},
	)

	d := &dumper{dir: *outDir, limit: *frames}
	app.Commands().AddResources(d)
	app.UseSystem(lottietex.System(frameDumpSystem).InStage(lottietex.Render))

	loader, _ := lottietex.Resource[lottietex.Loader](app)
	textures, _ := lottietex.Resource[lottietex.AnimatedTextures](app)

	var tex *lottietex.LiveTexture
	var texMu sync.Mutex
	loader.Load(lottietex.LoadRequest{URL: flag.Arg(0)},
		func(t *lottietex.LiveTexture) {
			texMu.Lock()
			tex = t
			texMu.Unlock()

			w, h := t.Width(), t.Height()
			logger.Infof("loaded %s: %dx%d surface, %d frames", flag.Arg(0), w, h, t.Animation().TotalFrames())
			if !loader.Config().Loop {
				t.SetOnComplete(d.markComplete)
			}
			id, _ := textures.Bind(t)
			d.bind(id)

			if cfg.Mqtt.URL != "" {
				go listen(cfg.Mqtt, t, logger)
			}
		},
		func(loaded, total int64) {
			logger.Debugf("fetched %d/%d bytes", loaded, total)
		},
		d.fail,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = app.Run(ctx, time.Second/60)

	texMu.Lock()
	if tex != nil {
		tex.Dispose()
	}
	texMu.Unlock()

	if err != nil && err != context.Canceled {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	if _, _, _, failed := d.state(); failed != nil {
		os.Exit(1)
	}
}
