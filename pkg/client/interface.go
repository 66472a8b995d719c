package client

import (
	"context"

	"github.com/tomsv/metascan/pkg/types"
)

// CaptionClient is a vision language-model backend that can describe an
// image. Implementations exist for the Ollama API and for any
// OpenAI-compatible server such as LM Studio.
type CaptionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	Describe(ctx context.Context, model, prompt, imgB64 string) (*types.DescriptionRecord, error)
}
