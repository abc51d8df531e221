package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	opus "gopkg.in/hraban/opus.v2"
)

// Ogg/opus always decodes at 48kHz regardless of the original input rate.
const opusRate = 48000

// opusStreamer adapts an ogg/opus stream to beep. libopusfile only decodes
// forward, so Seek is unsupported and the controller buffers the whole
// track before playback. Decoded frames carry the file's channel count;
// mono is duplicated into both output channels.
type opusStreamer struct {
	stream   *opus.Stream
	src      io.Closer
	channels int
	buf      []float32 // decode scratch, channel-interleaved
	pcm      []float32 // decoded frames not yet consumed
	off      int
	pos      int
	done     bool
	err      error
}

func decodeOpus(src readSeekCloser) (*Decoded, error) {
	ch, err := opusChannels(src)
	if err != nil {
		return nil, err
	}
	st, err := opus.NewStream(src)
	if err != nil {
		return nil, err
	}
	o := &opusStreamer{
		stream:   st,
		src:      src,
		channels: ch,
		// 120ms of stereo frames per read, the opusfile maximum.
		buf: make([]float32, 2*5760),
	}
	return &Decoded{
		Streamer: o,
		Format:   beep.Format{SampleRate: opusRate, NumChannels: 2, Precision: 2},
		Seekable: false,
	}, nil
}

// opusChannels reads the channel count from the OpusHead packet in the first
// ogg page, then rewinds. The stream decode API reports samples per channel
// but not how many channels it interleaves, so the container has to say.
func opusChannels(src io.ReadSeeker) (int, error) {
	hdr := make([]byte, 512)
	n, _ := io.ReadFull(src, hdr)
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	// OpusHead layout: 8-byte magic, 1-byte version, 1-byte channel count.
	i := bytes.Index(hdr[:n], []byte("OpusHead"))
	if i < 0 || i+10 > n {
		return 0, errors.New("missing OpusHead header")
	}
	ch := int(hdr[i+9])
	if ch != 1 && ch != 2 {
		return 0, fmt.Errorf("unsupported opus channel count %d", ch)
	}
	return ch, nil
}

func (o *opusStreamer) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) {
		if o.off >= len(o.pcm) {
			if o.done || !o.refill() {
				break
			}
		}
		left := float64(o.pcm[o.off])
		right := left
		if o.channels == 2 {
			right = float64(o.pcm[o.off+1])
		}
		samples[n][0] = left
		samples[n][1] = right
		o.off += o.channels
		n++
		o.pos++
	}
	return n, n > 0
}

// refill decodes the next chunk. The decoder fills the buffer with the file's
// channel count interleaved; the return value counts frames per channel.
func (o *opusStreamer) refill() bool {
	k, err := o.stream.ReadFloat32(o.buf)
	if k > 0 {
		o.pcm = o.buf[:k*o.channels]
		o.off = 0
	}
	if err != nil {
		o.done = true
		if err != io.EOF {
			o.err = err
		}
	}
	return k > 0
}

func (o *opusStreamer) Err() error { return o.err }

// Len reports only the frames decoded so far; the total is unknown until
// the stream is drained.
func (o *opusStreamer) Len() int { return o.pos }

func (o *opusStreamer) Position() int { return o.pos }

func (o *opusStreamer) Seek(int) error { return ErrSeekUnsupported }

func (o *opusStreamer) Close() error {
	if o.stream != nil {
		o.stream.Close()
		o.stream = nil
	}
	if o.src != nil {
		return o.src.Close()
	}
	return nil
}
