package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"

	"explorer/config"
	"explorer/internal/generator"
	"explorer/types"
)

// FrameSink is the controller's Display: it encodes each frame, keeps the
// latest one for GET /frame and pushes it to every websocket client.
type FrameSink struct {
	hub     *Hub
	format  string
	quality int

	mu     sync.RWMutex
	latest []byte
	mime   string
}

func NewFrameSink(hub *Hub, config config.DisplayConfig) *FrameSink {
	format := strings.ToLower(strings.TrimSpace(config.Format))
	if format != "jpeg" && format != "jpg" {
		format = "png"
	}
	quality := config.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &FrameSink{hub: hub, format: format, quality: quality}
}

func (s *FrameSink) Show(frame *generator.Frame) error {
	b, mime, err := s.Encode(frame)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.latest, s.mime = b, mime
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.Broadcast(types.WSEvent{
			Type:     "frame",
			Image:    base64.StdEncoding.EncodeToString(b),
			MimeType: mime,
			Width:    frame.Width,
			Height:   frame.Height,
		})
	}
	return nil
}

func (s *FrameSink) Latest() ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, "", false
	}
	return s.latest, s.mime, true
}

// Encode renders frame in the configured format.
func (s *FrameSink) Encode(frame *generator.Frame) ([]byte, string, error) {
	if frame == nil {
		return nil, "", fmt.Errorf("encode frame: nil frame")
	}

	buf := new(bytes.Buffer)
	switch s.format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(buf, frame.Image(), &jpeg.Options{Quality: s.quality}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	default:
		if err := png.Encode(buf, frame.Image()); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
}
