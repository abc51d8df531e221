package decode

import (
	"encoding/binary"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// makeWAV builds a mono 16-bit PCM wav with a low-level sine, numSamples long.
func makeWAV(rate, numSamples int) []byte {
	dataSize := numSamples * 2
	buf := make([]byte, 0, 44+dataSize)

	le := binary.LittleEndian
	u32 := func(v uint32) []byte { b := make([]byte, 4); le.PutUint32(b, v); return b }
	u16 := func(v uint16) []byte { b := make([]byte, 2); le.PutUint16(b, v); return b }

	buf = append(buf, "RIFF"...)
	buf = append(buf, u32(uint32(36+dataSize))...)
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = append(buf, u32(16)...)
	buf = append(buf, u16(1)...) // PCM
	buf = append(buf, u16(1)...) // mono
	buf = append(buf, u32(uint32(rate))...)
	buf = append(buf, u32(uint32(rate*2))...)
	buf = append(buf, u16(2)...)
	buf = append(buf, u16(16)...)
	buf = append(buf, "data"...)
	buf = append(buf, u32(uint32(dataSize))...)
	for i := range numSamples {
		v := int16(3000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		buf = append(buf, u16(uint16(v))...)
	}
	return buf
}

func writeWAV(t *testing.T, rate, numSamples int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, makeWAV(rate, numSamples), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenLocalWAV(t *testing.T) {
	path := writeWAV(t, 44100, 4410)
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if !d.Seekable {
		t.Fatal("wav decoder should be seekable")
	}
	if d.Format.SampleRate != 44100 {
		t.Fatalf("sample rate = %v, want 44100", d.Format.SampleRate)
	}
	if got := d.Streamer.Len(); got != 4410 {
		t.Fatalf("Len = %d, want 4410", got)
	}

	samples := make([][2]float64, 512)
	n, ok := d.Streamer.Stream(samples)
	if n != 512 || !ok {
		t.Fatalf("Stream = (%d, %v), want (512, true)", n, ok)
	}
}

func TestOpenLocalWAVSeek(t *testing.T) {
	path := writeWAV(t, 44100, 4410)
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if err := d.Streamer.Seek(2000); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got := d.Streamer.Position(); got != 2000 {
		t.Fatalf("Position after seek = %d, want 2000", got)
	}
}

func TestOpenHTTP(t *testing.T) {
	wavBytes := makeWAV(8000, 800)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream/tone.wav" {
			http.NotFound(w, r)
			return
		}
		w.Write(wavBytes)
	}))
	defer srv.Close()

	d, err := Open(srv.URL + "/stream/tone.wav")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if d.Format.SampleRate != 8000 {
		t.Fatalf("sample rate = %v, want 8000", d.Format.SampleRate)
	}
	if got := d.Streamer.Len(); got != 800 {
		t.Fatalf("Len = %d, want 800", got)
	}
}

func TestOpenHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := Open(srv.URL + "/missing.wav"); err == nil {
		t.Fatal("Open succeeded on a 404 response")
	}
}

func TestOpenUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.xyz")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.mp3")); err == nil {
		t.Fatal("Open succeeded on a missing file")
	}
}

func TestCloseIsIdempotentEnough(t *testing.T) {
	path := writeWAV(t, 8000, 80)
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
