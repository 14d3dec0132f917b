package ws

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcastrip/internal/config"
	diag "github.com/coreman2200/arcastrip/internal/diagnostics"
	"github.com/coreman2200/arcastrip/internal/dim"
	"github.com/coreman2200/arcastrip/internal/fx"
	"github.com/coreman2200/arcastrip/internal/fx/modes"
	"github.com/coreman2200/arcastrip/internal/nrz"
	"github.com/coreman2200/arcastrip/internal/nrz/nrztest"
	"github.com/coreman2200/arcastrip/internal/strip"
)

type rig struct {
	s   *State
	rec *nrztest.Recorder
	tx  *nrz.Transmitter
}

func newRig(t *testing.T) *rig {
	t.Helper()
	rec := &nrztest.Recorder{Freq: 2500 * physic.KiloHertz}
	tx, err := nrz.New(rec, nil)
	require.NoError(t, err)
	st, err := strip.New(tx, &strip.Opts{Family: strip.WS2812B, NumPixels: 4, Order: "RGB"})
	require.NoError(t, err)
	s := NewState(4, 60, 1, modes.New())
	s.Out = st
	s.CurrentDriver = "test"
	return &rig{s: s, rec: rec, tx: tx}
}

// wire returns the bytes the LEDs received in the last frame.
func (r *rig) wire(t *testing.T) []byte {
	t.Helper()
	b, err := nrz.Decode(r.rec.Last(), 0x01, r.tx.Timing())
	require.NoError(t, err)
	return b
}

func TestTickStatic(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.s.SetMode("static"))
	r.s.Color = fx.Color{R: 1}
	r.s.Brightness = 0.5

	require.NoError(t, r.s.Tick())
	c := dim.Correct(128)
	assert.Equal(t, []byte{c, 0, 0, c, 0, 0, c, 0, 0, c, 0, 0}, r.wire(t))
}

func TestTickWithoutMode(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.s.Tick())
	assert.Equal(t, make([]byte, 12), r.wire(t))
	assert.Equal(t, "", r.s.Mode())
}

func TestTickWhiteCap(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.s.SetMode(1))
	r.s.WhiteCap = 0.5
	require.NoError(t, r.s.Tick())
	c := dim.Correct(128)
	assert.Equal(t, []byte{c, c, c}, r.wire(t)[:3])
}

func TestApplyWhiteCap(t *testing.T) {
	pix := []byte{255, 255, 255, 255, 10, 20, 30, 255}
	applyWhiteCap(pix, 4, 0.5)
	assert.Equal(t, []byte{128, 128, 128, 255, 10, 20, 30, 255}, pix)

	pix = []byte{255, 255, 255}
	applyWhiteCap(pix, 3, 1)
	assert.Equal(t, []byte{255, 255, 255}, pix)
}

func TestRunTest(t *testing.T) {
	r := newRig(t)
	r.s.Brightness = 0.1
	r.s.applyControl(map[string]any{"runTest": "rgb_channels"})
	require.NoError(t, r.s.Tick())
	assert.Equal(t, []byte{255, 0, 0}, r.wire(t)[:3])

	r.s.applyControl(map[string]any{"runTest": "plane_z"})
	assert.Equal(t, "TEST.UNKNOWN", r.s.diags[len(r.s.diags)-1].Code)
}

func TestRoot(t *testing.T) {
	r := newRig(t)
	srv := httptest.NewServer(r.s.Mux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, Banner, string(body))

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func postMode(t *testing.T, url, body string) int {
	t.Helper()
	resp, err := http.Post(url+"/mode", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestMode(t *testing.T) {
	r := newRig(t)
	r.s.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	srv := httptest.NewServer(r.s.Mux())
	defer srv.Close()

	assert.Equal(t, http.StatusOK, postMode(t, srv.URL, `{"mode": 2}`))
	assert.Equal(t, "rainbow", r.s.Mode())
	assert.Equal(t, http.StatusOK, postMode(t, srv.URL, `{"mode": "blink"}`))
	assert.Equal(t, "blink", r.s.Mode())

	assert.Equal(t, http.StatusBadRequest, postMode(t, srv.URL, `{"mode":`))
	assert.Equal(t, http.StatusBadRequest, postMode(t, srv.URL, `{"mode": 99}`))
	assert.Equal(t, http.StatusBadRequest, postMode(t, srv.URL, `{}`))
	assert.Equal(t, "blink", r.s.Mode())

	resp, err := http.Get(srv.URL + "/mode")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	cfg, err := config.Load(r.s.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "blink", cfg.Mode)
}

func TestHealth(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.s.SetMode("static"))
	require.NoError(t, r.s.Tick())
	srv := httptest.NewServer(r.s.Mux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var h map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, float64(1), h["frame_id"])
	assert.Equal(t, float64(4), h["count"])
	assert.Equal(t, "static", h["mode"])
	assert.Equal(t, "test", h["driver"])
	assert.InDelta(t, 0.24, h["est_amps"], 0.001)
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	require.NoError(t, err)
	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	return c
}

func TestControlWS(t *testing.T) {
	r := newRig(t)
	r.s.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	r.s.Config = &config.Config{Addr: ":9999"}
	srv := httptest.NewServer(r.s.Mux())
	defer srv.Close()

	c := dial(t, srv, "/control")
	defer c.Close()
	require.NoError(t, c.WriteJSON(map[string]any{
		"brightness": 2.0, "speed": 3.0, "color": "#00ff00", "mode": "static",
	}))
	var top map[string]any
	require.NoError(t, c.ReadJSON(&top))
	assert.Equal(t, float64(1), top["brightness"])
	assert.Equal(t, float64(3), top["speed"])
	assert.Equal(t, "#00ff00", top["color"])
	assert.Equal(t, "static", top["mode"])

	cfg, err := config.Load(r.s.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Mode)
	assert.Equal(t, "#00ff00", cfg.Color)
	assert.Equal(t, ":9999", cfg.Addr)
}

func TestFramesWS(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.s.SetMode("static"))
	srv := httptest.NewServer(r.s.Mux())
	defer srv.Close()

	c := dial(t, srv, "/ws")
	defer c.Close()
	var top map[string]any
	require.NoError(t, c.ReadJSON(&top))
	assert.Equal(t, float64(4), top["count"])
	assert.Len(t, top["modes"], 5)

	require.NoError(t, r.s.Tick())
	var f struct {
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	require.NoError(t, c.ReadJSON(&f))
	assert.Equal(t, uint64(1), f.FrameID)
	assert.Equal(t, []byte{255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255}, f.RGB)
}

func TestDiagWS(t *testing.T) {
	r := newRig(t)
	r.s.PushDiag(diag.Diagnostic{Severity: diag.Warn, Code: "NRZ.TIMING_MARGINAL", Summary: "x"})
	srv := httptest.NewServer(r.s.Mux())
	defer srv.Close()

	c := dial(t, srv, "/diag")
	defer c.Close()
	var d diag.Diagnostic
	require.NoError(t, c.ReadJSON(&d))
	assert.Equal(t, "NRZ.TIMING_MARGINAL", d.Code)
}

func TestRenderLoopStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	r := newRig(t)
	r.s.FPS = 200
	require.NoError(t, r.s.SetMode("rainbow"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.s.RunRenderLoop(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		return r.s.frameID >= 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestFramesWSWhileRendering(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.s.SetMode("rainbow"))
	srv := httptest.NewServer(r.s.Mux())
	defer srv.Close()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				_ = r.s.Tick()
			}
		}
	}()

	for i := 0; i < 20; i++ {
		c := dial(t, srv, "/ws")
		var top map[string]any
		require.NoError(t, c.ReadJSON(&top))
		assert.Equal(t, float64(4), top["count"], "first message is the topology")
		c.Close()
	}
	close(stop)
	<-done
}

func TestRenderLoopFollowsFPS(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	r := newRig(t)
	r.s.FPS = 1
	require.NoError(t, r.s.SetMode("static"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.s.RunRenderLoop(ctx)
		close(done)
	}()
	r.s.applyControl(map[string]any{"fps": 200.0})
	assert.Eventually(t, func() bool {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		return r.s.frameID >= 3
	}, 800*time.Millisecond, 5*time.Millisecond)
	cancel()
	<-done
}
