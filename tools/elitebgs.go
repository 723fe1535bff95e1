package tools

import (
	"context"
	"net/url"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultEliteBGSBase is the public EliteBGS API root.
const DefaultEliteBGSBase = "https://elitebgs.app"

// RegisterEliteBGS adds the background-simulation faction lookup tool.
func (r *Registry) RegisterEliteBGS(base string, cacheTTL time.Duration) {
	if base == "" {
		base = DefaultEliteBGSBase
	}
	r.Register(&Tool{
		Def: openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "elitebgs_faction",
				Description: "Look up an Elite Dangerous minor faction's BGS state: influence, active states, controlled systems.",
				Parameters:  objectSchema([2]string{"faction", "Minor faction name"}),
			},
		},
		TTL: cacheTTL,
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			faction, err := strArg(args, "faction")
			if err != nil {
				return nil, err
			}
			q := url.Values{}
			q.Set("name", faction)
			return r.getJSON(ctx, base+"/api/ebgs/v5/factions?"+q.Encode())
		},
	})
}
