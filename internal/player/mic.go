package player

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// capture is a live input source feeding the analysis tap. The microphone
// is deliberately never wired to the speaker: the user must not hear their
// own input echoed back.
type capture interface {
	Tap() *Tap
	Close() error
}

// micSource captures the default input device through portaudio and pushes
// mono samples straight into its tap.
type micSource struct {
	tap     *Tap
	stream  *portaudio.Stream
	scratch []float64
}

// openMic opens and starts the default capture device. Errors here cover
// both "no device" and "permission denied"; the controller surfaces them
// to the user.
func openMic(sampleRate, framesPerBuffer, tapSize int) (capture, error) {
	m := &micSource{tap: NewTap(tapSize, float64(sampleRate))}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, m.process)
	if err != nil {
		return nil, fmt.Errorf("open capture stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start capture stream: %w", err)
	}
	m.stream = stream
	return m, nil
}

// process runs on the portaudio callback thread.
func (m *micSource) process(in []float32) {
	if cap(m.scratch) < len(in) {
		m.scratch = make([]float64, len(in))
	}
	buf := m.scratch[:len(in)]
	for i, v := range in {
		buf[i] = float64(v)
	}
	m.tap.Push(buf)
}

func (m *micSource) Tap() *Tap { return m.tap }

func (m *micSource) Close() error {
	if m.stream == nil {
		return nil
	}
	if err := m.stream.Stop(); err != nil {
		m.stream.Close()
		return fmt.Errorf("stop capture stream: %w", err)
	}
	err := m.stream.Close()
	m.stream = nil
	if err != nil {
		return fmt.Errorf("close capture stream: %w", err)
	}
	return nil
}
