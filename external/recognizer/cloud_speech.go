package recognizer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/kotobalab/tsuyaku/internal/recognizer"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	speechAPIEndpointPort = 443
	audioSampleRateHertz  = 16000
	audioChannelCount     = 1
	eventBufferSize       = 32
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
}

type CloudSpeechRecognizer struct {
	projectID       string
	credentialsJSON string
	location        string
	model           string
}

func NewCloudSpeechRecognizer(cfg CloudSpeechConfig) recognizer.Recognizer {
	return &CloudSpeechRecognizer{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		location:        strings.TrimSpace(cfg.Location),
		model:           strings.TrimSpace(cfg.Model),
	}
}

func (r *CloudSpeechRecognizer) Start(ctx context.Context, language string) (recognizer.Stream, error) {
	if r.projectID == "" || r.credentialsJSON == "" {
		return nil, recognizer.ErrNotConfigured
	}
	language = recognizer.MapDialect(language)
	slog.Info("starting cloud speech streaming", "location", r.location, "language", language, "model", r.model)

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(r.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if r.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", r.location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	grpcStream, err := client.StreamingRecognize(ctx)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	recognizerName := fmt.Sprintf("projects/%s/locations/%s/recognizers/_", r.projectID, r.location)
	configReq := &speechpb.StreamingRecognizeRequest{
		Recognizer: recognizerName,
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Model:         r.model,
					LanguageCodes: []string{language},
					DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
						ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
							Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
							SampleRateHertz:   audioSampleRateHertz,
							AudioChannelCount: audioChannelCount,
						},
					},
					Features: &speechpb.RecognitionFeatures{},
				},
				StreamingFeatures: &speechpb.StreamingRecognitionFeatures{InterimResults: true},
			},
		},
	}
	if err := grpcStream.Send(configReq); err != nil {
		_ = grpcStream.CloseSend()
		_ = client.Close()
		return nil, err
	}
	slog.Info("cloud speech stream initialized", "language", language)

	s := &cloudStream{
		stream: grpcStream,
		events: make(chan recognizer.Event, eventBufferSize),
		closeFn: func() error {
			return client.Close()
		},
	}
	go s.receiveLoop()
	return s, nil
}

type cloudStream struct {
	mu      sync.Mutex
	stopped bool
	stream  speechpb.Speech_StreamingRecognizeClient
	events  chan recognizer.Event
	closeFn func() error
}

func (s *cloudStream) Events() <-chan recognizer.Event {
	return s.events
}

func (s *cloudStream) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return io.ErrClosedPipe
	}
	return s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_Audio{
			Audio: pcm,
		},
	})
}

func (s *cloudStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	if err := s.stream.CloseSend(); err != nil {
		_ = s.closeFn()
		return err
	}
	return s.closeFn()
}

// receiveLoop translates provider responses into tagged events. The
// channel closes after a terminal Ended event; a failed stream emits one
// Error event first and is never reconnected.
func (s *cloudStream) receiveLoop() {
	defer close(s.events)
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			if isExpectedStreamEnd(err) {
				slog.Info("speech stream ended", "reason", err.Error())
			} else {
				slog.Error("speech stream failed", "error", err)
				s.events <- recognizer.Event{Kind: recognizer.KindError, Err: err}
			}
			s.events <- recognizer.Event{Kind: recognizer.KindEnded}
			return
		}
		for _, result := range resp.GetResults() {
			if len(result.GetAlternatives()) == 0 {
				continue
			}
			alt := result.GetAlternatives()[0]
			if !result.GetIsFinal() {
				s.events <- recognizer.Event{Kind: recognizer.KindInterim, Text: alt.GetTranscript()}
				continue
			}
			s.events <- recognizer.Event{
				Kind:       recognizer.KindFinal,
				Text:       alt.GetTranscript(),
				Confidence: recognizer.ConfidenceFromRatio(float64(alt.GetConfidence())),
			}
		}
	}
}

func isExpectedStreamEnd(err error) bool {
	if err == io.EOF {
		return true
	}
	if strings.Contains(err.Error(), "context canceled") {
		return true
	}
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Canceled
}
