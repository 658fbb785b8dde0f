package assistant

import (
	"context"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"
)

// OllamaBackend talks to Ollama through its OpenAI-compatible /v1 API. The
// same adapter serves the local daemon and Ollama cloud.
type OllamaBackend struct {
	client *openai.Client
}

func NewOllamaBackend(host, apiKey string, opts ...option.RequestOption) *OllamaBackend {
	if apiKey == "" {
		// the local daemon ignores the key but the client always sends one
		apiKey = "ollama"
	}
	base := []option.RequestOption{
		option.WithBaseURL(host + "/v1/"),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	client := openai.NewClient(append(base, opts...)...)
	return &OllamaBackend{client: &client}
}

func (b *OllamaBackend) Family() Family { return FamilyOllama }

func (b *OllamaBackend) Stream(ctx context.Context, model string, req Request) (ChunkStream, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: ollamaMessages(req),
	}
	return &ollamaStream{stream: b.client.Chat.Completions.NewStreaming(ctx, params)}, nil
}

func (b *OllamaBackend) Close() error { return nil }

func ollamaMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Text))
		default:
			out = append(out, openai.UserMessage(m.Text))
		}
	}
	return out
}

type ollamaStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *ollamaStream) Recv() (Chunk, error) {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.Delta.Content == "" {
			continue
		}
		return Chunk{Text: choice.Delta.Content, Final: choice.FinishReason != ""}, nil
	}
	if err := s.stream.Err(); err != nil {
		return Chunk{}, err
	}
	return Chunk{}, io.EOF
}

func (s *ollamaStream) Close() error {
	return s.stream.Close()
}
