package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiBackend struct {
	client   *genai.Client
	rateChan chan struct{} // concurrent stream slots
}

func NewGeminiBackend(ctx context.Context, apiKey string, concurrency int) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if concurrency <= 0 {
		concurrency = 5
	}
	rateChan := make(chan struct{}, concurrency)
	for i := 0; i < concurrency; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiBackend{client: client, rateChan: rateChan}, nil
}

func (b *GeminiBackend) Family() Family { return FamilyGemini }

func (b *GeminiBackend) Stream(ctx context.Context, model string, req Request) (ChunkStream, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("gemini: empty request")
	}

	select {
	case <-b.rateChan:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	gm := b.client.GenerativeModel(model)
	if req.System != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	last := req.Messages[len(req.Messages)-1]
	cs := gm.StartChat()
	cs.History = geminiHistory(req.Messages[:len(req.Messages)-1])

	streamCtx, cancel := context.WithCancel(ctx)
	return &geminiStream{
		iter:    cs.SendMessageStream(streamCtx, genai.Text(last.Text)),
		cancel:  cancel,
		release: func() { b.rateChan <- struct{}{} },
	}, nil
}

func (b *GeminiBackend) Close() error {
	return b.client.Close()
}

func geminiHistory(msgs []Message) []*genai.Content {
	history := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, &genai.Content{
			Role:  m.Role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}
	return history
}

type geminiStream struct {
	iter      *genai.GenerateContentResponseIterator
	cancel    context.CancelFunc
	release   func()
	closeOnce sync.Once
}

func (s *geminiStream) Recv() (Chunk, error) {
	for {
		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			return Chunk{}, io.EOF
		}
		if err != nil {
			return Chunk{}, err
		}
		if chunk, ok := geminiChunk(resp); ok {
			return chunk, nil
		}
	}
}

func (s *geminiStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.release()
	})
	return nil
}

func geminiChunk(resp *genai.GenerateContentResponse) (Chunk, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Chunk{}, false
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return Chunk{}, false
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return Chunk{}, false
	}
	return Chunk{Text: sb.String(), Final: cand.FinishReason == genai.FinishReasonStop}, true
}
