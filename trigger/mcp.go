package trigger

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/steamlink/kit"
)

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var urlProperty = map[string]any{
	"url": map[string]any{"type": "string", "description": "Web URL, e.g. https://store.steampowered.com/app/730/"},
}

// RegisterMCP adds steamlink_classify and steamlink_open to srv.
func (t *Trigger) RegisterMCP(srv *mcp.Server) {
	open, classify := t.Endpoints()

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "steamlink_classify",
		Description: "Classify a URL and return the steam:// deep link it maps to, without opening anything. Kind is \"none\" for pages outside Steam.",
		InputSchema: inputSchema(urlProperty, []string{"url"}),
	}, classify, kit.DecodeArgs[urlRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "steamlink_open",
		Description: "Open a Steam store or community URL in the Steam client. Pages outside Steam are ignored and reported with acted=false.",
		InputSchema: inputSchema(urlProperty, []string{"url"}),
	}, open, kit.DecodeArgs[urlRequest])
}

// NewMCPServer creates an MCP server exposing the trigger tools.
func NewMCPServer(t *Trigger, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "steamlink", Version: version}, nil)
	t.RegisterMCP(srv)
	return srv
}
