package server

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	canim "github.com/NeuGoga/cc-tweaked-media-player"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource yields n copies of one image, optionally blocking before each
// frame until released or cancelled.
type fakeSource struct {
	n    int
	gate chan struct{}
}

func (s *fakeSource) Estimate() int { return s.n }

func (s *fakeSource) Frames(ctx context.Context) (<-chan image.Image, <-chan error, error) {
	out := make(chan image.Image)
	errc := make(chan error, 1)

	img := image.NewRGBA(image.Rect(0, 0, 18, 5))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	go func() {
		defer close(out)
		defer close(errc)

		for i := 0; i < s.n; i++ {
			if s.gate != nil {
				select {
				case <-s.gate:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
			select {
			case out <- img:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return out, errc, nil
}

func newTestManager(t *testing.T, src canim.FrameSource) (*Manager, string) {
	t.Helper()

	dir := t.TempDir()
	defaults := canim.ConvertOptions{
		Config:  canim.DefaultConfig(),
		Dir:     dir,
		Base:    "animation",
		Workers: 2,
	}
	open := func(path string, fps int) (canim.FrameSource, error) {
		return src, nil
	}
	return NewManager(defaults, open, nil), dir
}

func TestManagerConvert(t *testing.T) {
	mgr, dir := newTestManager(t, &fakeSource{n: 12})

	require.NoError(t, mgr.Start(Request{Path: "/videos/intro.mp4", ChunkSize: 5, Base: "intro"}))
	state := mgr.Wait()

	assert.False(t, state.Running)
	assert.Empty(t, state.Error)
	assert.Equal(t, "intro", state.Title)
	assert.Equal(t, "Export complete! Created intro.mcanim and 3 chunks.", state.Status)
	assert.Equal(t, float64(100), state.Percent)
	require.NotNil(t, state.Manifest)
	assert.Len(t, state.Manifest.Chunks, 3)

	anim, _, err := canim.Load(filepath.Join(dir, "intro.mcanim"))
	require.NoError(t, err)
	assert.Equal(t, 12, anim.Len())
	assert.Equal(t, canim.White, anim.Frame(11).At(0, 0))
}

func TestManagerOptions(t *testing.T) {
	mgr, dir := newTestManager(t, &fakeSource{n: 1})

	opts := mgr.options(Request{BlocksX: 3, FPS: 90, NoDither: true})
	assert.Equal(t, 3, opts.Config.BlocksX)
	assert.Equal(t, 1, opts.Config.BlocksY)
	assert.Equal(t, canim.MaxFPS, opts.Config.FPS)
	assert.True(t, opts.NoDither)
	assert.Equal(t, dir, opts.Dir)
	assert.Equal(t, "animation", opts.Base)

	opts = mgr.options(Request{Output: "elsewhere", Base: "clip"})
	assert.Equal(t, "elsewhere", opts.Dir)
	assert.Equal(t, "clip", opts.Base)
	assert.False(t, opts.NoDither)
}

func TestManagerCancel(t *testing.T) {
	src := &fakeSource{n: 5, gate: make(chan struct{})}
	mgr, _ := newTestManager(t, src)

	_, err := mgr.Cancel()
	assert.Error(t, err)

	require.NoError(t, mgr.Start(Request{Path: "clip.mp4"}))
	assert.True(t, mgr.State().Running)
	assert.Error(t, mgr.Start(Request{Path: "clip.mp4"}), "second job while running")

	src.gate <- struct{}{}

	state, err := mgr.Cancel()
	require.NoError(t, err)
	assert.False(t, state.Running)
	assert.Contains(t, state.Error, context.Canceled.Error())
	assert.Nil(t, state.Manifest)
}

func TestManagerStartErrors(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeSource{n: 1})

	assert.Error(t, mgr.Start(Request{}))
	assert.ErrorIs(t, mgr.Start(Request{Path: "x.mp4", Scale: -1}), canim.ErrInvalidConfiguration)
	assert.False(t, mgr.State().Running)
}

func TestRoutes(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeSource{n: 3})
	e := New(mgr)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/api/state", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var state State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "Ready.", state.Status)

	rec = do(http.MethodPost, "/api/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(http.MethodPost, "/api/convert", `{"path":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPost, "/api/convert", `{"path":"clip.mp4","fps":5}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	state = mgr.Wait()
	assert.Empty(t, state.Error)
	assert.Equal(t, 5, state.Manifest.Header.FPS)

	rec = do(http.MethodGet, "/api/state", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.NotNil(t, state.Manifest)
}

func TestClientReceivesState(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeSource{n: 2})
	srv := httptest.NewServer(New(mgr))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/client"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello struct {
		State State `json:"state"`
	}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "Ready.", hello.State.Status)

	require.NoError(t, mgr.Start(Request{Path: "clip.mp4"}))

	var sawEvent bool
	for {
		var msg map[string]json.RawMessage
		require.NoError(t, conn.ReadJSON(&msg))

		if _, ok := msg["kind"]; ok {
			sawEvent = true
		}
		if raw, ok := msg["state"]; ok {
			var s State
			require.NoError(t, json.Unmarshal(raw, &s))
			if !s.Running && s.Manifest != nil {
				break
			}
		}
	}
	assert.True(t, sawEvent)
}
