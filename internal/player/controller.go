package player

import (
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gordonklaus/portaudio"

	"github.com/lumenbeat/lumenbeat/internal/analysis"
	"github.com/lumenbeat/lumenbeat/internal/config"
	"github.com/lumenbeat/lumenbeat/internal/decode"
)

// savedSession preserves the file transport state across a microphone
// excursion so it can be restored exactly.
type savedSession struct {
	offset     float64
	wasPlaying bool
}

// Controller owns the playback session: the active strategy, the microphone
// source, the analysis loop, and all transitions between them. It is the
// only writer of graph topology; the loop only ever reads the active tap.
//
// Lock order is Controller.mu -> strategy.mu -> speaker; nothing ever takes
// them in reverse, and speaker-thread callbacks touch atomics only.
type Controller struct {
	cfg        config.Config
	engineRate beep.SampleRate
	loop       *analysis.Loop

	// Seams for strategy construction, source resolution, and device
	// access. Tests substitute these; production code leaves the defaults.
	newStrategy func(*decode.Decoded) (strategy, error)
	openSource  func(string) (*decode.Decoded, error)
	openMic     func() (capture, error)

	// alertFn surfaces microphone failure to the user. Set once before use.
	alertFn func(string)

	mu          sync.Mutex
	strategy    strategy
	url         string
	mic         capture
	micStopping bool
	micGen      int
	saved       *savedSession
	gain        float64
	paInited    bool
	closed      bool
}

// NewController creates an uninitialized controller. Call Init before the
// first Load, and Close when done.
func NewController(cfg config.Config) *Controller {
	c := &Controller{
		cfg:        cfg,
		engineRate: beep.SampleRate(cfg.SampleRate),
		gain:       1,
	}
	c.loop = analysis.NewLoop(cfg.SampleRate, cfg.FFTSize, cfg.TickHz, cfg.Smoothing, c)
	c.newStrategy = c.defaultStrategy
	c.openSource = decode.Open
	c.openMic = func() (capture, error) {
		return openMic(cfg.SampleRate, cfg.MicBuffer, c.tapSize())
	}
	return c
}

func (c *Controller) tapSize() int { return 2 * c.cfg.FFTSize }

// Init brings up the output device and the capture backend. A capture
// backend failure is not fatal: file playback still works, the microphone
// will simply refuse to start.
func (c *Controller) Init() error {
	if err := speaker.Init(c.engineRate, c.engineRate.N(c.cfg.SpeakerBuffer)); err != nil {
		return err
	}
	if err := portaudio.Initialize(); err != nil {
		log.Printf("portaudio init: %v (microphone unavailable)", err)
		return nil
	}
	c.mu.Lock()
	c.paInited = true
	c.mu.Unlock()
	return nil
}

// SetAlertFunc installs the user-facing alert hook for microphone failure.
func (c *Controller) SetAlertFunc(fn func(string)) { c.alertFn = fn }

// Snapshots returns the channel of analysis snapshots. The channel lives for
// the controller's lifetime.
func (c *Controller) Snapshots() <-chan analysis.Snapshot { return c.loop.Snapshots() }

// defaultStrategy picks the playback path for a decoded source: seekable
// decoders stream, forward-only decoders get fully buffered. ForceBuffered
// routes everything through the buffered path.
func (c *Controller) defaultStrategy(dec *decode.Decoded) (strategy, error) {
	if !dec.Seekable || c.cfg.ForceBuffered {
		return newBufferedStrategy(dec, c.engineRate, c.tapSize())
	}
	return newStreamingStrategy(dec, c.engineRate, c.tapSize()), nil
}

// Load opens url and starts playing it from the beginning. On any decode or
// fetch error the previous session is left untouched; the error is logged,
// not returned, and the UI layer decides whether to tell the user.
func (c *Controller) Load(url string) {
	dec, err := c.openSource(url)
	if err != nil {
		log.Printf("load: %v", err)
		return
	}
	st, err := c.newStrategy(dec)
	if err != nil {
		log.Printf("load %s: %v", url, err)
		dec.Close()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		st.Close()
		return
	}
	old := c.strategy
	mic := c.mic
	c.strategy = st
	c.url = url
	c.mic = nil
	c.micStopping = false
	c.micGen++
	c.saved = nil
	st.SetVolume(c.gain)
	c.mu.Unlock()

	// Tear down the displaced sources before the new one touches the
	// speaker, so exactly one source is ever wired in.
	if mic != nil {
		mic.Close()
	}
	if old != nil {
		old.Close()
	}

	c.loop.Reset()
	c.loop.Attach(st.Tap())
	st.Play()
	c.loop.Start()
}

// Play resumes the loaded file. No-op with nothing loaded, while the
// microphone is active, or when already playing.
func (c *Controller) Play() {
	c.mu.Lock()
	st := c.strategy
	micOn := c.mic != nil
	c.mu.Unlock()
	if st == nil || micOn || st.Playing() {
		return
	}
	st.Play()
	c.loop.Start()
}

// Pause halts the loaded file and the analysis loop. Idempotent.
func (c *Controller) Pause() {
	c.mu.Lock()
	st := c.strategy
	micOn := c.mic != nil
	c.mu.Unlock()
	if st == nil || micOn || !st.Playing() {
		return
	}
	st.Pause()
	c.loop.Stop()
}

// Seek moves the file position, clamped to [0, duration].
func (c *Controller) Seek(sec float64) {
	c.mu.Lock()
	st := c.strategy
	micOn := c.mic != nil
	c.mu.Unlock()
	if st == nil || micOn {
		return
	}
	if sec < 0 {
		sec = 0
	}
	if d := st.Duration(); sec > d {
		sec = d
	}
	st.Seek(sec)
}

// SetVolume sets the output gain, clamped to [0,1]. Applies immediately
// without interrupting playback.
func (c *Controller) SetVolume(gain float64) {
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	c.mu.Lock()
	c.gain = gain
	st := c.strategy
	c.mu.Unlock()
	if st != nil {
		st.SetVolume(gain)
	}
}

// Volume returns the current output gain.
func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gain
}

// Track returns the url of the loaded source, if any.
func (c *Controller) Track() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// StartMic switches the analysis input to the capture device. Any playing
// file is suspended with its exact position and play state preserved for
// restoration. The mic feeds the analyzer only, never the speaker. On
// failure the prior file session is resumed and the alert hook fires:
// there is no silent fallback for "no audio source at all".
func (c *Controller) StartMic() error {
	c.mu.Lock()
	if c.closed || c.mic != nil {
		c.mu.Unlock()
		return nil
	}
	st := c.strategy
	// A pending mic-off restore still holds the pre-mic session. Keep it:
	// re-sampling now would capture the transitional pause as the state to
	// restore, and a track that was playing would come back paused.
	if st != nil && c.saved == nil {
		c.saved = &savedSession{offset: st.Position(), wasPlaying: st.Playing()}
	}
	c.micGen++
	gen := c.micGen
	c.mu.Unlock()

	if st != nil {
		st.Pause()
	}

	// Device access may block on a permission prompt; everything below
	// re-checks that the session still wants this mic.
	mic, err := c.openMic()

	c.mu.Lock()
	stale := c.closed || gen != c.micGen
	if err != nil || stale {
		saved := c.saved
		c.saved = nil
		c.mu.Unlock()
		if mic != nil {
			mic.Close()
		}
		if stale {
			return nil
		}
		if saved != nil && saved.wasPlaying && st != nil {
			st.Play()
			c.loop.Start()
		}
		log.Printf("microphone: %v", err)
		if fn := c.alertFn; fn != nil {
			fn("Microphone unavailable. Check input devices and permissions.")
		}
		return err
	}
	c.mic = mic
	c.micStopping = false
	c.mu.Unlock()

	c.loop.Reset()
	c.loop.Attach(mic.Tap())
	c.loop.Start()
	return nil
}

// StopMic releases the capture device and, after a short fixed delay,
// restores the preserved file session at its exact position and play
// state. The delay is a UI affordance (MicStopping stays up during it),
// not a correctness mechanism.
func (c *Controller) StopMic() {
	c.mu.Lock()
	mic := c.mic
	if mic == nil {
		c.mu.Unlock()
		return
	}
	c.mic = nil
	c.micStopping = true
	gen := c.micGen
	delay := c.cfg.MicOffDelay
	c.mu.Unlock()

	if err := mic.Close(); err != nil {
		log.Printf("microphone stop: %v", err)
	}
	time.AfterFunc(delay, func() { c.restoreAfterMic(gen) })
}

// restoreAfterMic completes a StopMic. A newer toggle or load bumps micGen
// and makes this restoration a no-op.
func (c *Controller) restoreAfterMic(gen int) {
	c.mu.Lock()
	if c.closed || gen != c.micGen || c.mic != nil {
		c.mu.Unlock()
		return
	}
	c.micStopping = false
	saved := c.saved
	c.saved = nil
	st := c.strategy
	c.mu.Unlock()

	c.loop.Reset()
	if st == nil {
		c.loop.Attach(nil)
		c.loop.Stop()
		return
	}
	c.loop.Attach(st.Tap())
	if saved != nil {
		st.Seek(saved.offset)
		if saved.wasPlaying {
			st.Play()
			c.loop.Start()
			return
		}
	}
	c.loop.Stop()
}

// Status implements analysis.Transport. Microphone input counts as always
// playing; position and duration only apply to file sources.
func (c *Controller) Status() analysis.TransportStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := analysis.TransportStatus{
		MicMode:     c.mic != nil,
		MicStopping: c.micStopping,
	}
	if st.MicMode {
		st.IsPlaying = true
		return st
	}
	if c.strategy != nil {
		st.IsPlaying = c.strategy.Playing()
		st.CurrentTime = c.strategy.Position()
		st.Duration = c.strategy.Duration()
	}
	return st
}

// Close tears the session down: loop cancelled, sources released, capture
// backend terminated. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.micGen++
	st := c.strategy
	mic := c.mic
	paInited := c.paInited
	c.strategy = nil
	c.mic = nil
	c.mu.Unlock()

	c.loop.Stop()
	if mic != nil {
		mic.Close()
	}
	if st != nil {
		st.Close()
	}
	if paInited {
		portaudio.Terminate()
	}
}
