// Package decode opens a media reference (file path or http URL) and returns
// a beep streamer for it. Formats with seekable decoders feed the streaming
// playback path; forward-only formats (opus) are flagged so the controller
// routes them through the decode-buffer path.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

var (
	// ErrUnsupportedFormat is returned for extensions no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrSeekUnsupported is returned by forward-only streamers.
	ErrSeekUnsupported = errors.New("seek not supported by this decoder")
)

// Decoded bundles an opened streamer with its format and capabilities.
type Decoded struct {
	Streamer beep.StreamSeekCloser
	Format   beep.Format
	// Seekable is false for decoders that can only move forward; such
	// sources must be fully buffered before playback.
	Seekable bool
	Path     string

	src io.Closer
}

// Close releases the streamer and its underlying reader. Some beep decoders
// close their input themselves; the redundant close on an *os.File is benign.
func (d *Decoded) Close() error {
	var err error
	if d.Streamer != nil {
		err = d.Streamer.Close()
	}
	if d.src != nil {
		d.src.Close()
	}
	return err
}

type readSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// memReader adapts an in-memory buffer to the decoder input interfaces.
type memReader struct {
	*bytes.Reader
}

func (memReader) Close() error { return nil }

// Open resolves url (http(s) URL or local path), sniffs the format by
// extension, and returns a decoder for it. Remote resources are fetched
// fully into memory first: decoders seek, and a broken half-streamed body
// must not surface mid-playback.
func Open(url string) (*Decoded, error) {
	name := url
	var src readSeekCloser

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		if u, err := neturl.Parse(url); err == nil {
			name = u.Path
		}
		resp, err := http.Get(url)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: status %s", url, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		src = memReader{bytes.NewReader(data)}
	} else {
		f, err := os.Open(url)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", url, err)
		}
		src = f
	}

	d, err := decodeByExt(src, strings.ToLower(filepath.Ext(name)))
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	d.Path = url
	d.src = src
	return d, nil
}

func decodeByExt(src readSeekCloser, ext string) (*Decoded, error) {
	switch ext {
	case ".mp3":
		s, format, err := mp3.Decode(src)
		if err != nil {
			return nil, err
		}
		return &Decoded{Streamer: s, Format: format, Seekable: true}, nil
	case ".wav":
		s, format, err := wav.Decode(src)
		if err != nil {
			return nil, err
		}
		return &Decoded{Streamer: s, Format: format, Seekable: true}, nil
	case ".flac":
		s, format, err := flac.Decode(src)
		if err != nil {
			return nil, err
		}
		return &Decoded{Streamer: s, Format: format, Seekable: true}, nil
	case ".ogg", ".oga":
		s, format, err := vorbis.Decode(src)
		if err != nil {
			return nil, err
		}
		return &Decoded{Streamer: s, Format: format, Seekable: true}, nil
	case ".opus":
		return decodeOpus(src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
