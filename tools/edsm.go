package tools

import (
	"context"
	"net/url"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultEDSMBase is the public EDSM API root.
const DefaultEDSMBase = "https://www.edsm.net"

// RegisterEDSM adds the EDSM system and station lookup tools. Snapshots of
// galaxy state change slowly, so results stay cached for cacheTTL.
func (r *Registry) RegisterEDSM(base string, cacheTTL time.Duration) {
	if base == "" {
		base = DefaultEDSMBase
	}
	r.Register(&Tool{
		Def: openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "edsm_system",
				Description: "Look up an Elite Dangerous star system on EDSM: coordinates, allegiance, government, population.",
				Parameters:  objectSchema([2]string{"system", "Exact star system name"}),
			},
		},
		TTL: cacheTTL,
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			system, err := strArg(args, "system")
			if err != nil {
				return nil, err
			}
			q := url.Values{}
			q.Set("systemName", system)
			q.Set("showInformation", "1")
			q.Set("showCoordinates", "1")
			return r.getJSON(ctx, base+"/api-v1/system?"+q.Encode())
		},
	})
	r.Register(&Tool{
		Def: openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "edsm_stations",
				Description: "List the stations in an Elite Dangerous star system, with services and controlling factions.",
				Parameters:  objectSchema([2]string{"system", "Exact star system name"}),
			},
		},
		TTL: cacheTTL,
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			system, err := strArg(args, "system")
			if err != nil {
				return nil, err
			}
			q := url.Values{}
			q.Set("systemName", system)
			return r.getJSON(ctx, base+"/api-system-v1/stations?"+q.Encode())
		},
	})
}
