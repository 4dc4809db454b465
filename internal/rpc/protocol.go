// Package rpc implements the MCP stdio JSON-RPC 2.0 server: tool
// registry, initialize/tools-list/tools-call dispatch, and per-tool
// error shaping. Transport is newline-delimited JSON over stdin/stdout.
package rpc

import (
	"encoding/json"

	"github.com/agentmux/agentmux/internal/apierr"
)

// request is an incoming JSON-RPC 2.0 request or notification.
// Notifications have a nil/absent ID.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *request) isNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// response is an outgoing JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	errCodeParse          = -32700
	errCodeMethodNotFound = -32601
	errCodeInvalidParams  = -32602
)

const protocolVersion = "2025-03-26"

type initializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ClientInfo      clientInfo `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      serverInfo         `json:"serverInfo"`
}

type serverCapabilities struct {
	Tools *capability `json:"tools,omitempty"`
}

type capability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolDefinition describes one tool exposed via tools/list.
type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

type toolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolCallResult is the tools/call response payload. Errors are
// surfaced as a JSON object in Content's text; the dispatcher never
// throws a JSON-RPC-level error out of a tool invocation, per the
// spec's "server never throws out of the dispatch loop" rule.
type ToolCallResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(v any) ToolCallResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return ToolCallResult{Content: []textContent{{Type: "text", Text: string(data)}}}
}

func errorResult(err error) ToolCallResult {
	data, _ := json.Marshal(map[string]string{
		"error": err.Error(),
		"kind":  string(apierr.KindOf(err)),
	})
	return ToolCallResult{Content: []textContent{{Type: "text", Text: string(data)}}, IsError: true}
}
