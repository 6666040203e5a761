package lottietex

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testAnimation = `{"v": "5.7", "nm": "dot", "fr": 30, "ip": 0, "op": 48, "w": 16, "h": 12,
	"layers": [{"ty": 1, "sc": "#00ff00", "sw": 16, "sh": 12, "ks": {}}]}`

// fakePlayer records controls. The test drives events through it.
type fakePlayer struct {
	params PlayerParams

	mu        sync.Mutex
	calls     []string
	destroyed int
}

func (p *fakePlayer) record(name string) {
	p.mu.Lock()
	p.calls = append(p.calls, name)
	p.mu.Unlock()
}

func (p *fakePlayer) Play()                                  { p.record("play") }
func (p *fakePlayer) Pause()                                 { p.record("pause") }
func (p *fakePlayer) GoToAndPlay(value float64, isFrame bool) { p.record("goToAndPlay") }
func (p *fakePlayer) GoToAndStop(value float64, isFrame bool) { p.record("goToAndStop") }

func (p *fakePlayer) Destroy() {
	p.mu.Lock()
	p.destroyed++
	p.mu.Unlock()
}

func (p *fakePlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePlayer) Destroyed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

func (p *fakePlayer) ready() {
	p.params.OnEvent(Event{Type: EventReady})
}

func (p *fakePlayer) frames(k int) {
	for i := 0; i < k; i++ {
		p.params.OnEvent(Event{Type: EventEnterFrame, Frame: float64(i)})
	}
}

func (p *fakePlayer) complete() {
	p.params.OnEvent(Event{Type: EventComplete})
}

type fakeEngine struct {
	err error
	// readyBeforeReturn emits Ready before LoadAnimation returns.
	readyBeforeReturn bool

	mu      sync.Mutex
	players []*fakePlayer
	started chan *fakePlayer
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{started: make(chan *fakePlayer, 16)}
}

func (e *fakeEngine) LoadAnimation(params PlayerParams) (Player, error) {
	if e.err != nil {
		return nil, e.err
	}
	p := &fakePlayer{params: params}
	e.mu.Lock()
	e.players = append(e.players, p)
	e.mu.Unlock()

	if e.readyBeforeReturn {
		done := make(chan struct{})
		go func() {
			p.ready()
			close(done)
		}()
		<-done
	}
	e.started <- p
	return p, nil
}

func (e *fakeEngine) next(t *testing.T) *fakePlayer {
	t.Helper()
	select {
	case p := <-e.started:
		return p
	case <-time.After(time.Second):
		t.Fatal("player was never started")
		return nil
	}
}

func staticFetcher(body string) Fetcher {
	return FetcherFunc(func(ctx context.Context, url string, opts FetchOptions, progress ProgressFunc) ([]byte, error) {
		if progress != nil {
			progress(int64(len(body)), int64(len(body)))
		}
		return []byte(body), nil
	})
}

// loadResult collects the callbacks of one Load call.
type loadResult struct {
	loads  chan *LiveTexture
	errors chan error
}

func newLoadResult() *loadResult {
	return &loadResult{
		loads:  make(chan *LiveTexture, 4),
		errors: make(chan error, 4),
	}
}

func (r *loadResult) onLoad(tex *LiveTexture) { r.loads <- tex }
func (r *loadResult) onError(err error)       { r.errors <- err }

func (r *loadResult) texture(t *testing.T) *LiveTexture {
	t.Helper()
	select {
	case tex := <-r.loads:
		return tex
	case err := <-r.errors:
		t.Fatalf("load failed: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for onLoad")
	}
	return nil
}

func (r *loadResult) err(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errors:
		return err
	case <-r.loads:
		t.Fatal("onLoad called for a failing load")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for onError")
	}
	return nil
}

func (r *loadResult) quiet(t *testing.T) {
	t.Helper()
	select {
	case <-r.loads:
		t.Fatal("unexpected onLoad")
	case err := <-r.errors:
		t.Fatalf("unexpected onError: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

type loaderFixture struct {
	engine *fakeEngine
	doc    *OffscreenDocument
	loader *Loader
}

func newLoaderFixture(t *testing.T, body string, opts ...LoaderOption) *loaderFixture {
	t.Helper()
	f := &loaderFixture{
		engine: newFakeEngine(),
		doc:    NewOffscreenDocument(),
	}
	opts = append([]LoaderOption{WithFetcher(staticFetcher(body)), WithDocument(f.doc)}, opts...)
	loader, err := NewLoader(f.engine, opts...)
	require.NoError(t, err)
	f.loader = loader
	return f
}

// loadReady runs a load to the ready state and returns the texture and its
// fake player.
func (f *loaderFixture) loadReady(t *testing.T) (*LiveTexture, *fakePlayer) {
	t.Helper()
	res := newLoadResult()
	f.loader.Load(LoadRequest{URL: "anim.json"}, res.onLoad, nil, res.onError)
	p := f.engine.next(t)
	p.ready()
	tex := res.texture(t)
	t.Cleanup(tex.Dispose)
	return tex, p
}

var errBoom = errors.New("boom")
