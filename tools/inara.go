package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultINARABase is the public INARA API root.
const DefaultINARABase = "https://inara.cz"

// RegisterINARA adds the commander profile lookup tool. INARA speaks a
// single POST endpoint carrying an event envelope; the response is passed
// through opaquely. The tool is only registered when an API key is
// configured.
func (r *Registry) RegisterINARA(base, apiKey string, cacheTTL time.Duration) {
	if apiKey == "" {
		return
	}
	if base == "" {
		base = DefaultINARABase
	}
	r.Register(&Tool{
		Def: openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "inara_profile",
				Description: "Look up an Elite Dangerous commander's public INARA profile: ranks, squadron, ships.",
				Parameters:  objectSchema([2]string{"commander", "Commander name to search for"}),
			},
		},
		TTL: cacheTTL,
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			commander, err := strArg(args, "commander")
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(map[string]any{
				"header": map[string]any{
					"appName":    "kaelbot",
					"appVersion": "1.0",
					"APIkey":     apiKey,
				},
				"events": []map[string]any{{
					"eventName":      "getCommanderProfile",
					"eventTimestamp": time.Now().UTC().Format(time.RFC3339),
					"eventData":      map[string]any{"searchName": commander},
				}},
			})
			if err != nil {
				return nil, err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/inapi/v1/", bytes.NewReader(payload))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := r.cli.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return nil, fmt.Errorf("POST %s: status %d", base, resp.StatusCode)
			}
			var v any
			if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
				return nil, fmt.Errorf("POST %s: decode: %w", base, err)
			}
			return v, nil
		},
	})
}
