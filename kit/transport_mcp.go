package kit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/steamlink/idgen"
)

// RegisterMCPTool registers an Endpoint as an MCP tool. decode extracts
// the typed request from req.Params.Arguments; the endpoint's response is
// returned as JSON text content. Decode and endpoint failures become tool
// errors, not protocol errors.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode func(*mcp.CallToolRequest) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decoded, err := decode(req)
		if err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}

		ctx = WithTransport(ctx, "mcp")
		ctx = WithRequestID(ctx, idgen.New())

		resp, err := endpoint(ctx, decoded)
		if err != nil {
			return toolError(errors.New(err.Error())), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

// DecodeArgs unmarshals the tool arguments into a new T.
func DecodeArgs[T any](req *mcp.CallToolRequest) (any, error) {
	var v T
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return &v, nil
	}
	if err := json.Unmarshal(req.Params.Arguments, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
