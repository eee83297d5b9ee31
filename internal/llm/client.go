package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is the advisor boundary. GenerateStream delivers the reply as
// chunks in arrival order through onChunk and returns the settled response;
// providers that cannot stream deliver one terminal chunk. Returning an
// error from onChunk aborts the stream.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
	GenerateStream(ctx context.Context, messages []Message, onChunk func(delta string) error) (Response, error)
}
