package assistant

import "context"

// Family is a class of completion backend with its own request shape.
type Family string

const (
	FamilyOllama Family = "ollama"
	FamilyGemini Family = "gemini"
)

func (f Family) Known() bool {
	return f == FamilyOllama || f == FamilyGemini
}

// Message is one entry of a backend request, already mapped to the role
// vocabulary of the target family.
type Message struct {
	Role string
	Text string
}

type Request struct {
	System   string
	Messages []Message
}

// Chunk is one unit of generated text. Adapters never emit empty chunks.
type Chunk struct {
	Text  string
	Final bool
}

// ChunkStream is a finite, non-restartable sequence of chunks. Recv returns
// io.EOF once the backend has finished.
type ChunkStream interface {
	Recv() (Chunk, error)
	Close() error
}

// Backend is a long-lived client shared by every request. Implementations
// must be safe for concurrent use.
type Backend interface {
	Family() Family
	Stream(ctx context.Context, model string, req Request) (ChunkStream, error)
	Close() error
}
