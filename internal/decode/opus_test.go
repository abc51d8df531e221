package decode

import (
	"bytes"
	"io"
	"math"
	"testing"
)

// opusHeadPage builds the start of an ogg stream whose first packet is an
// OpusHead with the given channel count.
func opusHeadPage(channels byte) []byte {
	var b bytes.Buffer
	b.WriteString("OggS")
	b.Write(make([]byte, 22)) // version, type, granule, serial, seq, crc
	b.WriteByte(1)            // one segment
	b.WriteByte(19)           // OpusHead packet length
	b.WriteString("OpusHead")
	b.WriteByte(1) // version
	b.WriteByte(channels)
	b.Write(make([]byte, 9)) // pre-skip, input rate, gain, mapping
	return b.Bytes()
}

func TestOpusChannelsFromHeader(t *testing.T) {
	tests := []struct {
		name     string
		channels byte
		want     int
		wantErr  bool
	}{
		{"mono", 1, 1, false},
		{"stereo", 2, 2, false},
		{"surround rejected", 6, 0, true},
		{"zero rejected", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(opusHeadPage(tt.channels))
			got, err := opusChannels(r)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("opusChannels = %d, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("opusChannels: %v", err)
			}
			if got != tt.want {
				t.Fatalf("opusChannels = %d, want %d", got, tt.want)
			}
			// The reader must be rewound for the decoder.
			if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
				t.Fatalf("reader left at offset %d", pos)
			}
		})
	}
}

func TestOpusChannelsMissingHeader(t *testing.T) {
	r := bytes.NewReader([]byte("definitely not an ogg stream"))
	if _, err := opusChannels(r); err == nil {
		t.Fatal("opusChannels accepted a stream without OpusHead")
	}
}

func TestOpusStreamerUpmixesMono(t *testing.T) {
	o := &opusStreamer{
		channels: 1,
		pcm:      []float32{0.1, 0.2, 0.3},
		done:     true, // no decoder behind this streamer
	}
	samples := make([][2]float64, 4)
	n, ok := o.Stream(samples)
	if n != 3 || !ok {
		t.Fatalf("Stream = (%d, %v), want (3, true)", n, ok)
	}
	want := []float64{0.1, 0.2, 0.3}
	for i, w := range want {
		if math.Abs(samples[i][0]-w) > 1e-6 || math.Abs(samples[i][1]-w) > 1e-6 {
			t.Fatalf("frame %d = %v, want both channels %v", i, samples[i], w)
		}
	}
	if o.pos != 3 {
		t.Fatalf("pos = %d, want 3", o.pos)
	}
}

func TestOpusStreamerStereoInterleave(t *testing.T) {
	o := &opusStreamer{
		channels: 2,
		pcm:      []float32{0.1, 0.2, 0.3, 0.4},
		done:     true,
	}
	samples := make([][2]float64, 4)
	n, ok := o.Stream(samples)
	if n != 2 || !ok {
		t.Fatalf("Stream = (%d, %v), want (2, true)", n, ok)
	}
	want := [][2]float64{{0.1, 0.2}, {0.3, 0.4}}
	for i, w := range want {
		if math.Abs(samples[i][0]-w[0]) > 1e-6 || math.Abs(samples[i][1]-w[1]) > 1e-6 {
			t.Fatalf("frame %d = %v, want %v", i, samples[i], w)
		}
	}
	if o.pos != 2 {
		t.Fatalf("pos = %d, want 2", o.pos)
	}
}
