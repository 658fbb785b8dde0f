package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"chatbot-backend/internal/assistant"
)

var errStreamClosed = errors.New("sse: stream closed")

// sseWriter frames assistant events as "data: <json>\n\n" and flushes each
// one immediately. Writes are serialised so keepalive comments never land
// inside an event.
type sseWriter struct {
	mu  sync.Mutex
	w   http.ResponseWriter
	rc  *http.ResponseController
	err error
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	// The server-wide WriteTimeout would cut long generations short.
	rc.SetWriteDeadline(time.Time{})

	w.WriteHeader(http.StatusOK)
	rc.Flush()

	return &sseWriter{w: w, rc: rc}
}

func (s *sseWriter) Send(e assistant.Event) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return err
	}
	payload := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)
	return s.write(frame)
}

func (s *sseWriter) write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if _, err := s.w.Write(frame); err != nil {
		s.err = err
		return err
	}
	if err := s.rc.Flush(); err != nil {
		s.err = err
		return err
	}
	return nil
}

// keepAlive writes ": keepalive" comments every interval until the returned
// stop func is called. stop waits for the goroutine to exit.
func (s *sseWriter) keepAlive(interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := s.write([]byte(": keepalive\n\n")); err != nil {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

// close marks the writer unusable; later sends report errStreamClosed.
func (s *sseWriter) close() {
	s.mu.Lock()
	if s.err == nil {
		s.err = errStreamClosed
	}
	s.mu.Unlock()
}
