package tools

import (
	"context"
	"net/url"
	"time"

	"github.com/sashabaranov/go-openai"
)

// RegisterPDFSearch adds the manual text-search tool backed by an external
// PDF extraction service. Only registered when a base URL is configured.
func (r *Registry) RegisterPDFSearch(base string, cacheTTL time.Duration) {
	if base == "" {
		return
	}
	r.Register(&Tool{
		Def: openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "pdf_search",
				Description: "Search the indexed game manuals and lore PDFs for a phrase and return matching passages.",
				Parameters:  objectSchema([2]string{"query", "Text to search for"}),
			},
		},
		TTL: cacheTTL,
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			query, err := strArg(args, "query")
			if err != nil {
				return nil, err
			}
			q := url.Values{}
			q.Set("q", query)
			return r.getJSON(ctx, base+"/search?"+q.Encode())
		},
	})
}
