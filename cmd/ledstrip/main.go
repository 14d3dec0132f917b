package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/arcastrip/internal/board"
	"github.com/coreman2200/arcastrip/internal/config"
	"github.com/coreman2200/arcastrip/internal/diagnostics"
	"github.com/coreman2200/arcastrip/internal/fx"
	"github.com/coreman2200/arcastrip/internal/fx/modes"
	"github.com/coreman2200/arcastrip/internal/led"
	"github.com/coreman2200/arcastrip/internal/power"
	"github.com/coreman2200/arcastrip/internal/remote"
	"github.com/coreman2200/arcastrip/internal/strip"
	"github.com/coreman2200/arcastrip/internal/ws"
)

func main() {
	// ---- Flags (remain usable; config.yaml can override most) ----
	def := config.Default()
	var (
		family       = flag.String("family", def.Strip.Family, "LED family: WS2811 | WS2812 | WS2812B | SK6812 | SK6812RGBW")
		order        = flag.String("order", def.Strip.Order, "channel order on the wire (e.g. GRB, GRBW)")
		leds         = flag.Int("leds", def.Strip.LEDs, "number of LEDs")
		driver       = flag.String("driver", def.Strip.Driver, "driver: spi | nrzled | sim")
		spiDev       = flag.String("spi", board.Device, "SPI port")
		mode         = flag.String("mode", def.Mode, "start mode, name or number")
		fps          = flag.Int("fps", def.FPS, "target frames per second")
		brightness   = flag.Float64("brightness", def.Brightness, "global brightness 0..1")
		addr         = flag.String("addr", def.Addr, "HTTP listen address")
		redisAddr    = flag.String("redis", "", "Redis address for remote mode selection, empty to disable")
		redisChannel = flag.String("redis-channel", "ledstrip", "Redis channel")
		powerChip    = flag.String("power-chip", "", "GPIO chip of the power enable line, empty for none")
		powerLine    = flag.Int("power-line", 0, "GPIO line offset of the power enable line")
		configPath   = flag.String("config", "config.yaml", "path to config.yaml")
		simOnly      = flag.Bool("sim-only", false, "force simulation (no hardware output)")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		cfg = &config.Config{}
	}

	// ---- Effective params (config overrides flags where available) ----
	eFamily := firstNonEmpty(cfg.Strip.Family, *family)
	eOrder := firstNonEmpty(cfg.Strip.Order, *order)
	eDriver := firstNonEmpty(cfg.Strip.Driver, *driver)
	eSPI := firstNonEmpty(cfg.Strip.SPIDev, *spiDev)
	eMode := firstNonEmpty(cfg.Mode, *mode)
	eColor := firstNonEmpty(cfg.Color, def.Color)
	eAddr := firstNonEmpty(cfg.Addr, *addr)
	eRedis := firstNonEmpty(cfg.Redis.Addr, *redisAddr)
	eChannel := firstNonEmpty(cfg.Redis.Channel, *redisChannel)
	ePowerChip := firstNonEmpty(cfg.Strip.PowerChip, *powerChip)
	eLEDs, eFPS, ePowerLine := *leds, *fps, *powerLine
	if cfg.Strip.LEDs > 0 {
		eLEDs = cfg.Strip.LEDs
	}
	if cfg.FPS > 0 {
		eFPS = cfg.FPS
	}
	if cfg.Strip.PowerLine > 0 {
		ePowerLine = cfg.Strip.PowerLine
	}
	eBright := firstNonZeroFloat(cfg.Brightness, *brightness)
	eSpeed := firstNonZeroFloat(cfg.Speed, def.Speed)
	eWhiteCap := firstNonZeroFloat(cfg.WhiteCap, def.WhiteCap)
	if *simOnly {
		eDriver = led.BackendSim
	}

	fam, err := strip.FamilyByName(eFamily)
	if err != nil {
		log.Fatal().Err(err).Msg("bad strip family")
	}

	// ---- Driver selection, falling back to SIM ----
	if eDriver != led.BackendSim {
		if _, err := host.Init(); err != nil {
			log.Warn().Err(err).Msg("periph host init failed")
		}
	}
	opts := &led.Opts{
		Backend:   eDriver,
		Device:    eSPI,
		Clock:     board.Clock,
		NumPixels: eLEDs,
		Channels:  fam.Channels,
		Order:     eOrder,
	}
	drv, err := led.Open(opts)
	if err != nil && eDriver != led.BackendSim {
		log.Warn().Err(err).
			Str("driver", eDriver).
			Str("dev", eSPI).
			Str("clock", board.Clock.String()).
			Msg("driver init failed; falling back to SIM")
		opts.Backend = led.BackendSim
		drv, err = led.Open(opts)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("no output available")
	}

	st, err := strip.New(drv, &strip.Opts{Family: fam, NumPixels: eLEDs, Order: eOrder, Mask: board.Mask})
	if err != nil {
		log.Fatal().Err(err).Msg("strip setup failed")
	}

	// ---- Power ----
	sw, err := power.Open(ePowerChip, ePowerLine)
	if err != nil {
		log.Fatal().Err(err).Msg("power line setup failed")
	}
	if err := sw.On(); err != nil {
		log.Warn().Err(err).Msg("power on failed")
	}

	// ---- State ----
	state := ws.NewState(eLEDs, eFPS, eBright, modes.New())
	state.ConfigPath = *configPath
	state.Config = cfg
	state.Out = st
	state.CurrentDriver = opts.Backend
	state.Speed = eSpeed
	state.WhiteCap = eWhiteCap
	if c, err := fx.ParseColor(eColor); err != nil {
		log.Warn().Err(err).Msg("bad color; using white")
	} else {
		state.Color = c
	}
	if err := state.SetMode(eMode); err != nil {
		log.Warn().Err(err).Str("mode", eMode).Msg("bad mode; using default")
		_ = state.SetMode(modes.Default)
	}
	state.PushDiag(diagnostics.FromTiming(board.Clock))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Remote ----
	var sub *remote.Subscriber
	if eRedis != "" {
		sub = remote.New(eRedis, eChannel)
		go func() {
			if err := sub.Run(ctx, state.SetMode); err != nil {
				log.Warn().Err(err).Msg("remote disabled")
			}
		}()
	}

	// ---- HTTP routes ----
	srv := &http.Server{
		Addr:         eAddr,
		Handler:      withCORS(state.Mux()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run render loop & server ----
	rendered := make(chan struct{})
	go func() {
		state.RunRenderLoop(ctx)
		close(rendered)
	}()
	go func() {
		log.Info().Str("addr", eAddr).Str("driver", opts.Backend).Str("strip", st.String()).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	<-rendered
	if err := st.Halt(); err != nil {
		log.Warn().Err(err).Msg("halt failed")
	}
	_ = drv.Close()
	_ = sw.Close()
	if sub != nil {
		_ = sub.Close()
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func firstNonZeroFloat(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
