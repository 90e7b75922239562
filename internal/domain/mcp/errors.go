// Package mcp provides domain types for Model Context Protocol tool servers.
package mcp

import "errors"

// Server lifecycle errors.
var (
	// ErrServerStartFailed indicates the server process failed to start.
	ErrServerStartFailed = errors.New("failed to spawn MCP process")

	// ErrInitializeFailed indicates the MCP initialization handshake failed.
	ErrInitializeFailed = errors.New("mcp initialization failed")

	// ErrRemoteNotSupported indicates the target is remote and cannot be dialed.
	ErrRemoteNotSupported = errors.New("remote targets not implemented yet")
)

// Tool errors.
var (
	// ErrToolNotFound indicates the requested tool does not exist on the server.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidTool indicates the tool descriptor is malformed.
	ErrInvalidTool = errors.New("invalid tool descriptor")

	// ErrInvalidSchema indicates the tool's input schema is malformed.
	ErrInvalidSchema = errors.New("invalid input schema")

	// ErrListFailed indicates the tool listing request failed.
	ErrListFailed = errors.New("failed to list tools")

	// ErrCallFailed indicates the tool call failed.
	ErrCallFailed = errors.New("tool call failed")
)
