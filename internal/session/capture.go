package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kotobalab/tsuyaku/internal/recognizer"
	"github.com/kotobalab/tsuyaku/internal/repository"
)

var (
	ErrSessionEnded  = errors.New("session is no longer active")
	ErrCaptureActive = errors.New("a capture stream is already running for this session")
	ErrNoCapture     = errors.New("no capture stream is running for this session")
)

type liveCapture struct {
	ownerID int64
	stream  recognizer.Stream
	cancel  context.CancelFunc
	done    chan struct{}
}

type captureRegistry struct {
	mu      sync.Mutex
	streams map[int64]*liveCapture
}

func newCaptureRegistry() captureRegistry {
	return captureRegistry{streams: make(map[int64]*liveCapture)}
}

// StartCapture opens a server-side recognition stream for the session and
// pipes final recognition events through SubmitUtterance until the stream
// is stopped or fails. One capture per session.
func (s *Service) StartCapture(ctx context.Context, requesterID, sessionID int64) error {
	sess, err := s.ownedSession(ctx, requesterID, sessionID)
	if err != nil {
		return err
	}
	if sess.Status != repository.SessionStatusActive {
		return ErrSessionEnded
	}

	s.captures.mu.Lock()
	if _, exists := s.captures.streams[sessionID]; exists {
		s.captures.mu.Unlock()
		return ErrCaptureActive
	}
	// Reserve the slot before the provider call so concurrent starts for
	// the same session cannot both open a stream.
	s.captures.streams[sessionID] = nil
	s.captures.mu.Unlock()

	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := s.recognizer.Start(streamCtx, sess.SourceLanguage)
	if err != nil {
		cancel()
		s.captures.mu.Lock()
		delete(s.captures.streams, sessionID)
		s.captures.mu.Unlock()
		return fmt.Errorf("start recognition stream: %w", err)
	}

	capture := &liveCapture{
		ownerID: requesterID,
		stream:  stream,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.captures.mu.Lock()
	s.captures.streams[sessionID] = capture
	s.captures.mu.Unlock()
	s.metrics.CapturesActive.Inc()
	slog.Info("capture stream started", "session_id", sessionID, "language", sess.SourceLanguage)

	go s.consumeCaptureEvents(sessionID, capture)
	return nil
}

func (s *Service) consumeCaptureEvents(sessionID int64, capture *liveCapture) {
	defer func() {
		s.captures.mu.Lock()
		if s.captures.streams[sessionID] == capture {
			delete(s.captures.streams, sessionID)
		}
		s.captures.mu.Unlock()
		s.metrics.CapturesActive.Dec()
		capture.cancel()
		close(capture.done)
		slog.Info("capture stream stopped", "session_id", sessionID)
	}()

	for ev := range capture.stream.Events() {
		switch ev.Kind {
		case recognizer.KindInterim:
			// Interim results are provisional; nothing durable happens.
		case recognizer.KindFinal:
			if strings.TrimSpace(ev.Text) == "" {
				continue
			}
			s.metrics.CaptureFinals.Inc()
			if _, err := s.SubmitUtterance(context.Background(), capture.ownerID, sessionID, ev.Text, ev.Confidence); err != nil {
				slog.Error("failed to persist captured utterance", "error", err, "session_id", sessionID)
			}
		case recognizer.KindError:
			s.metrics.CaptureErrors.Inc()
			slog.Error("capture stream error", "error", ev.Err, "session_id", sessionID)
		case recognizer.KindEnded:
		}
	}
}

func (s *Service) lookupCapture(requesterID, sessionID int64) (*liveCapture, error) {
	s.captures.mu.Lock()
	defer s.captures.mu.Unlock()
	capture, ok := s.captures.streams[sessionID]
	if !ok || capture == nil {
		return nil, ErrNoCapture
	}
	if capture.ownerID != requesterID {
		return nil, ErrSessionNotFound
	}
	return capture, nil
}

func (s *Service) WriteCaptureAudio(requesterID, sessionID int64, pcm []byte) error {
	capture, err := s.lookupCapture(requesterID, sessionID)
	if err != nil {
		return err
	}
	return capture.stream.Write(pcm)
}

// StopCapture stops the session's capture stream. Stopping when nothing is
// running is a no-op; in-flight interim recognition is discarded.
func (s *Service) StopCapture(requesterID, sessionID int64) error {
	capture, err := s.lookupCapture(requesterID, sessionID)
	if err != nil {
		if errors.Is(err, ErrNoCapture) {
			return nil
		}
		return err
	}
	if err := capture.stream.Stop(); err != nil {
		slog.Warn("failed to stop capture stream cleanly", "error", err, "session_id", sessionID)
	}
	capture.cancel()
	<-capture.done
	return nil
}
