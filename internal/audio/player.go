package audio

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/duskcast/streampipe/internal/config"
	"github.com/duskcast/streampipe/pkg/buffer"
)

// Player decodes inbound Opus packets and plays them out through
// PortAudio, buffering decoded PCM in a sample ring buffer between the
// WebSocket read loop and the audio callback.
type Player struct {
	cfg         *config.AudioConfig
	audioBuffer *buffer.PCMRing
	decoder     *Decoder

	isPlaying     bool
	audioComplete bool
	interrupted   bool
	mutex         sync.RWMutex
	completeMutex sync.RWMutex
	playbackWg    sync.WaitGroup

	stream *portaudio.Stream

	ctx    context.Context
	cancel context.CancelFunc

	enableDebug bool
}

// NewPlayer creates a new audio player decoding Opus with settings.
func NewPlayer(parentCtx context.Context, cfg *config.AudioConfig, settings Settings, enableDebug bool) (*Player, error) {
	dec, err := NewDecoder(settings)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(parentCtx)
	return &Player{
		cfg:         cfg,
		audioBuffer: buffer.New(cfg.BufferSize),
		decoder:     dec,
		ctx:         ctx,
		cancel:      cancel,
		enableDebug: enableDebug,
	}, nil
}

// Stop stops the player and releases the decoder.
func (p *Player) Stop() error {
	p.cancel()

	p.mutex.Lock()
	if p.stream != nil {
		if err := p.stream.Abort(); err != nil {
			log.Printf("player: abort stream: %v", err)
		}
		if err := p.stream.Close(); err != nil {
			log.Printf("player: close stream: %v", err)
		}
		p.stream = nil
	}
	p.mutex.Unlock()

	p.audioBuffer.Close()
	return p.decoder.Close()
}

// WriteOpusPacket decodes one Opus packet and queues the resulting PCM
// for playback, starting the output stream on first use.
func (p *Player) WriteOpusPacket(packet []byte) error {
	framesPerChannel := SampleRate(p.decoder.settings.SampleRate).FrameSize(60)
	pcm := make([]int16, framesPerChannel*int(p.decoder.settings.Channels))
	n, err := p.decoder.Decode(packet, pcm, false)
	if err != nil {
		return err
	}
	pcm = pcm[:n*int(p.decoder.settings.Channels)]

	p.audioBuffer.Write(pcm)

	p.mutex.Lock()
	if !p.isPlaying {
		p.isPlaying = true
		p.playbackWg.Add(1)
		go p.playAudio()
	}
	p.mutex.Unlock()
	return nil
}

// SetAudioComplete marks whether the stream has ended.
func (p *Player) SetAudioComplete(complete bool) {
	p.completeMutex.Lock()
	p.audioComplete = complete
	p.completeMutex.Unlock()
}

// ClearBuffer discards unplayed audio.
func (p *Player) ClearBuffer() {
	p.audioBuffer.Clear()
}

// StopPlayback immediately stops playback, e.g. on a remote interrupt.
func (p *Player) StopPlayback() {
	p.mutex.Lock()
	wasPlaying := p.isPlaying
	if p.stream != nil && p.isPlaying {
		p.interrupted = true
		p.isPlaying = false
		if err := p.stream.Abort(); err != nil {
			log.Printf("player: abort on interrupt: %v", err)
		}
	}
	p.mutex.Unlock()

	if wasPlaying {
		p.playbackWg.Wait()
	}
	p.ClearBuffer()
	p.SetAudioComplete(false)
}

// IsPlaying reports whether playback is active.
func (p *Player) IsPlaying() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.isPlaying
}

func (p *Player) playAudio() {
	defer func() {
		p.mutex.Lock()
		wasInterrupted := p.interrupted
		p.isPlaying = false
		p.interrupted = false
		if p.stream != nil {
			if !wasInterrupted {
				select {
				case <-p.ctx.Done():
					_ = p.stream.Abort()
				default:
					_ = p.stream.Stop()
				}
			}
			_ = p.stream.Close()
			p.stream = nil
		}
		p.mutex.Unlock()
		p.playbackWg.Done()
	}()

	var shouldStop bool
	emptyCount := 0
	lastDataTime := time.Now()

	var err error
	p.stream, err = portaudio.OpenDefaultStream(
		0, p.cfg.Channels,
		float64(p.cfg.SampleRate),
		0,
		func(out []int16) {
			n, closed := p.audioBuffer.Read(out)

			if n > 0 {
				lastDataTime = time.Now()
				emptyCount = 0
			} else {
				emptyCount++
			}

			for i := n; i < len(out); i++ {
				out[i] = 0
			}

			p.completeMutex.RLock()
			complete := p.audioComplete
			p.completeMutex.RUnlock()

			if complete && p.audioBuffer.Length() == 0 {
				shouldStop = true
			}
			if time.Since(lastDataTime) > 5*time.Second {
				shouldStop = true
			}
			if emptyCount >= 10 {
				shouldStop = true
			}
			if closed {
				shouldStop = true
			}
		},
	)
	if err != nil {
		log.Printf("player: open stream: %v", err)
		return
	}

	if err := p.stream.Start(); err != nil {
		log.Printf("player: start stream: %v", err)
		_ = p.stream.Close()
		p.stream = nil
		return
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for !shouldStop {
		select {
		case <-ticker.C:
			p.mutex.RLock()
			interrupted := p.interrupted
			p.mutex.RUnlock()
			if interrupted {
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
