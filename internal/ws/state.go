package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"

	"github.com/coreman2200/arcastrip/internal/config"
	diag "github.com/coreman2200/arcastrip/internal/diagnostics"
	"github.com/coreman2200/arcastrip/internal/fx"
	"github.com/coreman2200/arcastrip/internal/tests"
)

// Banner is the body of GET /.
const Banner = "led-strip server"

// maxDiags is how many recent diagnostics a new /diag client receives.
const maxDiags = 16

type State struct {
	mu         sync.RWMutex
	FPS        int
	Brightness float64
	Speed      float64
	Color      fx.Color
	WhiteCap   float64

	// ConfigPath, if set, is where settings changes are saved. Config is the
	// base written there; the live settings are layered on top.
	ConfigPath string
	Config     *config.Config

	// Out receives every frame. The render loop is its only writer.
	Out           display.Drawer
	CurrentDriver string

	modes     *fx.Registry
	effect    fx.Effect
	modeStart time.Time

	buf         []fx.Color
	img         *image.NRGBA
	frameID     uint64
	amps        float64
	startTime   time.Time
	clients     map[*client]bool
	diagClients map[*client]bool
	diags       []diag.Diagnostic
	fpsChanged  chan struct{}

	testRunner *tests.Runner
	now        func() time.Time
}

func NewState(n, fps int, brightness float64, modes *fx.Registry) *State {
	now := time.Now()
	return &State{
		FPS:         fps,
		Brightness:  brightness,
		Speed:       1,
		Color:       fx.Color{R: 1, G: 1, B: 1},
		modes:       modes,
		buf:         make([]fx.Color, n),
		img:         image.NewNRGBA(image.Rect(0, 0, n, 1)),
		startTime:   now,
		modeStart:   now,
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		fpsChanged:  make(chan struct{}, 1),
		now:         time.Now,
	}
}

// SetMode selects the effect by name or number.
func (s *State) SetMode(mode any) error {
	e, err := s.modes.Lookup(mode)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.setEffect(e)
	s.mu.Unlock()
	return nil
}

func (s *State) setEffect(e fx.Effect) {
	s.effect = e
	s.modeStart = s.now()
	log.Info().Str("mode", e.Name()).Msg("mode changed")
}

// Mode returns the active mode name, "" if none.
func (s *State) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.effect == nil {
		return ""
	}
	return s.effect.Name()
}

// RunRenderLoop renders at FPS until ctx is done. FPS changes made through
// /control take effect immediately.
func (s *State) RunRenderLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.fpsChanged:
			ticker.Reset(s.interval())
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				log.Debug().Err(err).Msg("write frame")
			}
		}
	}
}

func (s *State) interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Second / time.Duration(max(1, s.FPS))
}

// Tick renders one frame, sends it to Out and broadcasts it.
func (s *State) Tick() error {
	s.mu.Lock()
	if s.testRunner != nil {
		if !s.testRunner.Step(s.buf) {
			s.testRunner = nil
			s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete"})
		}
	} else if s.effect != nil {
		u := &fx.Uniforms{Color: s.Color, Speed: s.Speed}
		s.effect.Render(s.buf, s.now().Sub(s.modeStart).Seconds(), u)
		fx.Scale(s.buf, s.Brightness)
	} else {
		for i := range s.buf {
			s.buf[i] = fx.Color{}
		}
	}
	fx.Fill(s.img, s.buf)
	applyWhiteCap(s.img.Pix, 4, s.WhiteCap)

	s.frameID++
	rgb := make([]byte, 0, len(s.buf)*3)
	for i := 0; i+3 < len(s.img.Pix); i += 4 {
		rgb = append(rgb, s.img.Pix[i:i+3]...)
	}
	s.amps = estimateCurrent(rgb)
	out := s.Out
	img := s.img
	s.mu.Unlock()

	var err error
	if out != nil {
		err = out.Draw(out.Bounds(), img, image.Point{})
	}
	s.broadcastFrame(rgb)
	return err
}

// Mux returns the HTTP routes.
func (s *State) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleRoot)
	mux.HandleFunc("/mode", s.HandleMode)
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

func (s *State) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = io.WriteString(w, Banner)
}

// HandleMode takes {"mode": <name|number>}.
func (s *State) HandleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Mode any `json:"mode"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("mode: bad json")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.SetMode(req.Mode); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.saveConfig()
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	s.sendTopology(c)
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	s.mu.Lock()
	s.diagClients[c] = true
	for _, d := range s.diags {
		b, _ := json.Marshal(d)
		_ = c.write(b)
	}
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, c)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	c := &client{conn: conn}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.applyControl(msg)
		s.sendTopology(c)
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mode := ""
	if s.effect != nil {
		mode = s.effect.Name()
	}
	resp := map[string]any{
		"frame_id":   s.frameID,
		"uptime_s":   time.Since(s.startTime).Seconds(),
		"count":      len(s.buf),
		"fps":        s.FPS,
		"brightness": s.Brightness,
		"mode":       mode,
		"driver":     s.CurrentDriver,
		"est_amps":   s.amps,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// PushDiag records d and sends it to every /diag client.
func (s *State) PushDiag(d diag.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushDiag(d)
}

func (s *State) applyControl(msg map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := msg["fps"].(float64); ok && v >= 1 && int(v) != s.FPS {
		s.FPS = int(v)
		select {
		case s.fpsChanged <- struct{}{}:
		default:
		}
	}
	if v, ok := msg["brightness"].(float64); ok {
		s.Brightness = clamp(v, 0, 1)
	}
	if v, ok := msg["speed"].(float64); ok && v > 0 {
		s.Speed = v
	}
	if v, ok := msg["color"].(string); ok {
		if c, err := fx.ParseColor(v); err != nil {
			s.pushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "CONTROL.COLOR", Summary: "Invalid color",
				Evidence: map[string]any{"color": v},
			})
		} else {
			s.Color = c
		}
	}
	if v, ok := msg["mode"]; ok {
		if e, err := s.modes.Lookup(v); err != nil {
			s.pushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "CONTROL.MODE", Summary: "Unknown mode",
				Evidence: map[string]any{"mode": v},
			})
		} else {
			s.setEffect(e)
		}
	}
	if v, ok := msg["runTest"].(string); ok {
		if tests.Valid(tests.Kind(v)) {
			s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: v})
			s.testRunner = tests.NewRunner(tests.Plan{Kind: tests.Kind(v), Hold: max(1, s.FPS/4)})
		} else {
			s.pushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "TEST.UNKNOWN", Summary: "Unknown test name",
				Evidence: map[string]any{"name": v},
			})
		}
	}

	// Persist config after any change
	s.saveConfig()
}

// saveConfig writes the live settings. s.mu must be held.
func (s *State) saveConfig() {
	if s.ConfigPath == "" {
		return
	}
	cfg := config.Default()
	if s.Config != nil {
		c := *s.Config
		cfg = &c
	}
	if s.effect != nil {
		cfg.Mode = s.effect.Name()
	}
	cfg.Color = s.Color.Hex()
	cfg.Brightness = s.Brightness
	cfg.Speed = s.Speed
	cfg.FPS = s.FPS
	cfg.WhiteCap = s.WhiteCap
	if err := config.Save(s.ConfigPath, cfg); err != nil {
		log.Warn().Err(err).Str("path", s.ConfigPath).Msg("config save failed")
	}
}

func (s *State) sendTopology(c *client) {
	s.mu.RLock()
	mode := ""
	if s.effect != nil {
		mode = s.effect.Name()
	}
	top := map[string]any{
		"count":      len(s.buf),
		"driver":     s.CurrentDriver,
		"mode":       mode,
		"modes":      s.modes.List(),
		"brightness": s.Brightness,
		"speed":      s.Speed,
		"color":      s.Color.Hex(),
		"fps":        s.FPS,
	}
	s.mu.RUnlock()
	b, _ := json.Marshal(top)
	_ = c.write(b)
}

func (s *State) broadcastFrame(rgb []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: s.frameID, RGB: rgb})
	for c := range s.clients {
		if err := c.write(b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

// pushDiag needs s.mu held for writing.
func (s *State) pushDiag(d diag.Diagnostic) {
	s.diags = append(s.diags, d)
	if len(s.diags) > maxDiags {
		s.diags = s.diags[len(s.diags)-maxDiags:]
	}
	b, _ := json.Marshal(d)
	for c := range s.diagClients {
		_ = c.write(b)
	}
}

// client serializes writes to a websocket connection, which allows only one
// writer at a time.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// applyWhiteCap clamps each pixel of stride bytes so r+g+b <= whiteCap*3*255.
func applyWhiteCap(pix []byte, stride int, whiteCap float64) {
	if whiteCap <= 0 || whiteCap >= 1 {
		return
	}
	limit := whiteCap * 3.0 * 255.0
	for i := 0; i+2 < len(pix); i += stride {
		s := float64(pix[i]) + float64(pix[i+1]) + float64(pix[i+2])
		if s > limit && s > 0 {
			scale := limit / s
			pix[i] = byte(math.Round(float64(pix[i]) * scale))
			pix[i+1] = byte(math.Round(float64(pix[i+1]) * scale))
			pix[i+2] = byte(math.Round(float64(pix[i+2]) * scale))
		}
	}
}

// estimateCurrent returns estimated amps for an rgb frame, 20mA per channel
// at full scale.
func estimateCurrent(rgb []byte) float64 {
	var sum float64
	for _, v := range rgb {
		sum += float64(v)
	}
	return sum / 255.0 * 0.020
}

func (s *State) String() string {
	return fmt.Sprintf("ws.State{%d px, %s}", len(s.buf), s.Mode())
}
