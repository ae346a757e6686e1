// Command streampipe runs the capture/encode/relay agent: on a start
// control command it captures a synthetic (or, on a real deployment,
// platform) display and microphone, encodes video through an
// nvenc.EncoderCore and audio through Opus, and forwards both to a
// WebSocket relay; a stop command flushes and tears the session down.
package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/duskcast/streampipe/internal/audio"
	"github.com/duskcast/streampipe/internal/capture"
	"github.com/duskcast/streampipe/internal/config"
	"github.com/duskcast/streampipe/internal/control"
	"github.com/duskcast/streampipe/internal/nvenc"
	"github.com/duskcast/streampipe/internal/ws"
)

// App owns every long-lived collaborator and the goroutines that bridge
// them: a running capture+encode session, the relay client, and the
// control surface that starts/stops the session.
type App struct {
	cfg *config.Config

	relay   *ws.Client
	control interface {
		Start() error
		Stop() error
	}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	sessionMu sync.Mutex
	session   *captureSession

	player *audio.Player
	seq    atomic.Uint32

	enableDebug bool
}

// captureSession is everything torn down on a stop command.
type captureSession struct {
	core     *nvenc.EncoderCore
	input    nvenc.EncoderInput
	texture  capture.TextureSource
	recorder *audio.Recorder
	encoder  *audio.Encoder
	cancel   context.CancelFunc
}

// NewApp wires every collaborator from cfg but does not start a
// capture session — that happens on the first CmdStartCapture.
func NewApp(cfg *config.Config, enableDebug bool) *App {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		cfg:         cfg,
		ctx:         ctx,
		cancel:      cancel,
		enableDebug: enableDebug,
	}
	app.relay = ws.NewClient(ctx, &cfg.WebSocket, app, enableDebug)

	playSettings := audio.Settings{
		SampleRate:  audio.SampleRate(cfg.Audio.SampleRate),
		Channels:    audio.Channels(cfg.Audio.Channels),
		Application: audio.ApplicationAudio,
	}
	if player, err := audio.NewPlayer(ctx, &cfg.Audio, playSettings, enableDebug); err != nil {
		log.Printf("app: playback disabled: %v", err)
	} else {
		app.player = player
	}

	if cfg.Control.GPIOPin != 0 {
		app.control = control.NewGpioMonitor(ctx, cfg.Control.GPIOPin, cfg.Control.MonitorDelay, gpioAdapter{app})
	} else if cfg.Control.UseStdin {
		app.control = control.NewStdinMonitor(ctx, &cfg.Control, app)
	} else {
		app.control = control.NewFileMonitor(&cfg.Control, app)
	}

	return app
}

// gpioAdapter maps a GPIO wake event onto a toggle between start/stop.
type gpioAdapter struct{ app *App }

func (g gpioAdapter) OnGpioWake() {
	g.app.sessionMu.Lock()
	running := g.app.session != nil
	g.app.sessionMu.Unlock()

	if running {
		g.app.HandleCommand(control.CmdStopCapture)
	} else {
		g.app.HandleCommand(control.CmdStartCapture)
	}
}

// Start starts the relay client and the control surface.
func (a *App) Start() error {
	if err := a.relay.Start(); err != nil {
		return err
	}
	return a.control.Start()
}

// Stop tears everything down in the reverse order Start acquired it:
// stop the control surface, stop any running session, stop the relay,
// stop playback, then wait for every goroutine to exit.
func (a *App) Stop() {
	_ = a.control.Stop()
	a.stopSession()
	_ = a.relay.Stop()
	if a.player != nil {
		_ = a.player.Stop()
	}
	a.cancel()
	a.wg.Wait()
}

// HandleCommand implements control.Handler.
func (a *App) HandleCommand(cmd control.Command) {
	switch cmd {
	case control.CmdStartCapture:
		if err := a.startSession(); err != nil {
			log.Printf("app: start session: %v", err)
		}
	case control.CmdStopCapture:
		a.stopSession()
	case control.CmdQuit:
		a.cancel()
	}
}

// HandleFrame implements ws.Handler: inbound audio frames from the
// relay are decoded and handed to the playback path.
func (a *App) HandleFrame(f ws.Frame) {
	if f.Type != ws.FrameTypeAudio || a.player == nil {
		return
	}
	if err := a.player.WriteOpusPacket(f.Payload); err != nil {
		log.Printf("app: decode inbound audio: %v", err)
	}
	if f.EndOfStream {
		a.player.SetAudioComplete(true)
	}
}

// HandleControlAck implements ws.Handler.
func (a *App) HandleControlAck(msg *ws.ControlAckMessage) {
	if a.enableDebug {
		log.Printf("app: control ack: %+v", *msg)
	}
}

func (a *App) startSession() error {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	if a.session != nil {
		return nil
	}

	desc := nvenc.DisplayDesc{
		Width:       a.cfg.Display.Width,
		Height:      a.cfg.Display.Height,
		Format:      nvenc.PixelFormatBGRA8Unorm,
		RefreshRate: a.cfg.Display.RefreshRate,
	}
	sessCfg := nvenc.SessionConfig{
		Width:      desc.Width,
		Height:     desc.Height,
		Format:     desc.Format,
		Codec:      nvenc.CodecH264,
		Preset:     nvenc.PresetP4,
		Tuning:     nvenc.TuningLowLatency,
		FrameRate:  a.cfg.Encoder.FrameRate,
		BitrateBps: a.cfg.Encoder.BitrateBps,
	}

	nvSession, err := nvenc.NewCPUSession(sessCfg)
	if err != nil {
		return err
	}
	core, in, out, err := nvenc.Build(nvSession, sessCfg, a.cfg.Encoder.Slots)
	if err != nil {
		return err
	}

	texture := capture.NewSyntheticTextureSource(desc, 0)

	recorder := audio.NewRecorder(&a.cfg.Audio, a.enableDebug)
	var enc *audio.Encoder
	if err := recorder.Initialize(); err != nil {
		log.Printf("app: audio capture disabled: %v", err)
	} else if err := recorder.StartRecording(); err != nil {
		log.Printf("app: audio capture disabled: %v", err)
	} else {
		bitrate, _ := audio.NewBitrate(a.cfg.Audio.BitrateBps)
		enc, err = audio.NewEncoder(audio.Settings{
			SampleRate:  audio.SampleRate(a.cfg.Audio.SampleRate),
			Channels:    audio.Channels(a.cfg.Audio.Channels),
			Application: audio.ApplicationLowDelay,
			Bitrate:     bitrate,
		})
		if err != nil {
			log.Printf("app: audio encode disabled: %v", err)
		}
	}

	sessCtx, sessCancel := context.WithCancel(a.ctx)
	a.session = &captureSession{core: core, input: in, texture: texture, recorder: recorder, encoder: enc, cancel: sessCancel}

	a.wg.Add(1)
	go a.runEncodeInput(sessCtx, texture, in)
	a.wg.Add(1)
	go a.runEncodeOutput(sessCtx, core, out)
	if enc != nil {
		a.wg.Add(1)
		go a.runAudioCapture(sessCtx, recorder, enc)
	}

	if err := a.relay.SendControlAck(ws.ControlAckMessage{Action: "start", Session: "default", OK: true}); err != nil {
		log.Printf("app: send start ack: %v", err)
	}
	return nil
}

func (a *App) stopSession() {
	a.sessionMu.Lock()
	s := a.session
	a.session = nil
	a.sessionMu.Unlock()
	if s == nil {
		return
	}

	_ = s.input.EndOfStream()
	if s.recorder != nil {
		_ = s.recorder.StopRecording()
		_ = s.recorder.Terminate()
	}
	if s.encoder != nil {
		_ = s.encoder.Close()
	}
	s.cancel()

	if err := a.relay.SendControlAck(ws.ControlAckMessage{Action: "stop", Session: "default", OK: true}); err != nil {
		log.Printf("app: send stop ack: %v", err)
	}
}

func (a *App) runEncodeInput(ctx context.Context, texture capture.TextureSource, in nvenc.EncoderInput) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		pixels, ts, ok := texture.NextFrame()
		if !ok {
			return
		}
		if err := in.Submit(pixels, ts); err != nil {
			log.Printf("app: submit frame: %v", err)
			return
		}
	}
}

// runEncodeOutput drains encoded video until an end-of-stream result
// (or cancellation), then owns closing core — it is the last goroutine
// touching the session's encoder resources.
func (a *App) runEncodeOutput(ctx context.Context, core *nvenc.EncoderCore, out nvenc.EncoderOutput) {
	defer a.wg.Done()
	defer func() {
		if err := core.Close(); err != nil {
			log.Printf("app: close encoder core: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		res, err := out.WaitForOutput(1000)
		if err != nil {
			switch {
			case errors.Is(err, nvenc.ErrWaitTimeout):
				continue
			case errors.Is(err, nvenc.ErrEndOfStream):
				seq := a.seq.Add(1)
				_ = a.relay.SendFrame(ws.FrameTypeVideo, seq, true, nil)
				return
			default:
				log.Printf("app: wait for output: %v", err)
				return
			}
		}
		seq := a.seq.Add(1)
		if err := a.relay.SendFrame(ws.FrameTypeVideo, seq, false, res.Data); err != nil {
			log.Printf("app: send video frame: %v", err)
		}
	}
}

func (a *App) runAudioCapture(ctx context.Context, recorder *audio.Recorder, enc *audio.Encoder) {
	defer a.wg.Done()
	framesPerChannel := audio.SampleRate(a.cfg.Audio.SampleRate).FrameSize(10)
	packet := make([]byte, 4000)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		pcm, ok := recorder.NextFrame(framesPerChannel)
		if !ok {
			return
		}
		n, err := enc.Encode(pcm, packet)
		if err != nil {
			log.Printf("app: opus encode: %v", err)
			continue
		}
		seq := a.seq.Add(1)
		if err := a.relay.SendFrame(ws.FrameTypeAudio, seq, false, packet[:n]); err != nil {
			log.Printf("app: send audio frame: %v", err)
		}
	}
}
