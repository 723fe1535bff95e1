package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sashabaranov/go-openai"
	"github.com/xyzj/toolbox/crypto"
)

// mcpConn is one connected MCP server.
type mcpConn struct {
	uri string
	cli *client.Client
}

// McpSource connects to Model Context Protocol servers and exposes their
// tools through the registry, so community tool servers can extend the bot
// without code changes. Tool calls are routed to the server that declared
// them.
type McpSource struct {
	conns   map[string]*mcpConn // keyed by SHA1 of the server URI
	idx     map[string]string   // tool name -> connection key
	timeout time.Duration
}

// NewMcpSource creates an McpSource with no connections.
func NewMcpSource() *McpSource {
	return &McpSource{
		conns:   make(map[string]*mcpConn),
		idx:     make(map[string]string),
		timeout: 60 * time.Second,
	}
}

// AddServer connects to the MCP server at uri, discovers its tools and
// registers them with reg under the given cache TTL. An empty uri is
// ignored without error.
func (m *McpSource) AddServer(reg *Registry, uri string, cacheTTL time.Duration) error {
	if uri == "" {
		return nil
	}
	conn, err := m.connect(uri)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	listed, err := conn.cli.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}
	key := crypto.GetSHA1(uri)
	for _, mt := range listed.Tools {
		m.idx[mt.Name] = key
		name := mt.Name
		reg.Register(&Tool{
			Def: openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        name,
					Description: mt.Description,
					Parameters: map[string]any{
						"type":       "object",
						"properties": mt.InputSchema.Properties,
					},
				},
			},
			TTL: cacheTTL,
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return m.call(ctx, name, args)
			},
		})
	}
	return nil
}

// connect establishes and initializes a connection, reusing an existing one
// for the same URI.
func (m *McpSource) connect(uri string) (*mcpConn, error) {
	key := crypto.GetSHA1(uri)
	if conn, ok := m.conns[key]; ok {
		return conn, nil
	}
	cli, err := client.NewSSEMCPClient(uri)
	if err != nil {
		return nil, err
	}
	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "kaelbot",
		Version: "1.0.0",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cli.Initialize(ctx, initRequest); err != nil {
		return nil, err
	}
	conn := &mcpConn{uri: uri, cli: cli}
	m.conns[key] = conn
	return conn, nil
}

// call routes one tool invocation to the server that declared it.
func (m *McpSource) call(ctx context.Context, name string, args map[string]any) (any, error) {
	key, ok := m.idx[name]
	if !ok {
		return nil, fmt.Errorf("no MCP server for tool %q", name)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	result, err := m.conns[key].cli.CallTool(ctx, request)
	if err != nil {
		return nil, err
	}
	return fmt.Sprint(result.Content), nil
}
