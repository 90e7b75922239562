// Package mcp adapts the mcp-go client into the session interface the
// application layer invokes.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpproto "github.com/mark3labs/mcp-go/mcp"

	domain "github.com/mcptap/mcptap/internal/domain/mcp"
	"github.com/mcptap/mcptap/internal/domain/target"
)

// stubResult is returned when a tool result cannot be re-serialized.
const stubResult = `{"note":"result could not be serialized"}`

// rpcClient is the slice of the mcp-go client the session uses.
// *client.Client satisfies it.
type rpcClient interface {
	ListTools(ctx context.Context, request mcpproto.ListToolsRequest) (*mcpproto.ListToolsResult, error)
	CallTool(ctx context.Context, request mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error)
	Close() error
}

// Session is a live connection to a tool server process.
type Session struct {
	client rpcClient
	info   mcpproto.Implementation
}

// Connect spawns the local server process for spec, drains its stderr, and
// performs the initialization handshake. The returned session must be closed
// by the caller.
func Connect(ctx context.Context, spec *target.Spec, clientName, clientVersion string) (*Session, error) {
	if !spec.IsLocal() {
		return nil, domain.ErrRemoteNotSupported
	}

	c, err := client.NewStdioMCPClient(spec.Program(), nil, spec.Args()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrServerStartFailed, spec.Program(), err)
	}

	// Server banner noise on stderr is dropped so it can never interleave
	// with command output or block the child on a full pipe.
	if stdio, ok := c.GetTransport().(*transport.Stdio); ok {
		go func() {
			_, _ = io.Copy(io.Discard, stdio.Stderr())
		}()
	}

	initRequest := mcpproto.InitializeRequest{
		Params: mcpproto.InitializeParams{
			ProtocolVersion: mcpproto.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcpproto.ClientCapabilities{},
			ClientInfo: mcpproto.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
		},
	}
	if _, err := c.Initialize(ctx, initRequest); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrInitializeFailed, err)
	}

	return &Session{client: c, info: initRequest.Params.ClientInfo}, nil
}

// ListTools fetches the server's tool catalog.
func (s *Session) ListTools(ctx context.Context) ([]*domain.Tool, error) {
	result, err := s.client.ListTools(ctx, mcpproto.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrListFailed, err)
	}

	tools := make([]*domain.Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		raw, err := json.Marshal(t)
		if err != nil {
			continue
		}
		tool, err := domain.ParseTool(raw)
		if err != nil {
			continue
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// CallTool invokes a tool by name. A nil args map omits the arguments
// payload entirely. The result is returned as its JSON serialization; a
// result that cannot be serialized yields a stub note object instead of an
// error.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	request := mcpproto.CallToolRequest{
		Params: mcpproto.CallToolParams{
			Name: name,
		},
	}
	if len(args) > 0 {
		request.Params.Arguments = args
	}

	result, err := s.client.CallTool(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCallFailed, err)
	}
	return marshalResult(result), nil
}

// marshalResult serializes a call result, substituting a stub note object
// when serialization fails.
func marshalResult(result any) json.RawMessage {
	payload, err := json.Marshal(result)
	if err != nil {
		return json.RawMessage(stubResult)
	}
	return payload
}

// Close shuts down the server process.
func (s *Session) Close() error {
	return s.client.Close()
}
