package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/agentmux/agentmux/internal/config"
	"github.com/agentmux/agentmux/internal/manager"
	"github.com/agentmux/agentmux/internal/versioncheck"
)

// toolHandler executes one registered tool's tools/call invocation.
type toolHandler func(ctx context.Context, args json.RawMessage) ToolCallResult

type tool struct {
	name        string
	inputSchema any
	describe    func() string
	execute     toolHandler
}

// Server is the MCP server: it owns the manager, the vendor config (for
// tool-description text), and the version checker, and serves tool
// calls over stdio.
type Server struct {
	name    string
	version string

	mgr     *manager.Manager
	cfg     config.Config
	checker *versioncheck.Checker

	tools []tool

	reader io.Reader
	writer io.Writer
	mu     sync.Mutex // guards writes

	clientMu sync.Mutex
	client   versioncheck.ClientKind
}

// New creates an MCP server exposing Spawn/Status/Stop/Tasks over mgr.
func New(name, version string, mgr *manager.Manager, cfg config.Config, checker *versioncheck.Checker) *Server {
	s := &Server{
		name:    name,
		version: version,
		mgr:     mgr,
		cfg:     cfg,
		checker: checker,
		reader:  os.Stdin,
		writer:  os.Stdout,
		client:  versioncheck.ClientUnknown,
	}
	s.registerTools()
	return s
}

// Serve reads JSON-RPC messages from stdin and writes responses to
// stdout until stdin closes. A cancelled ctx is noticed once the next
// line has been read, and that line is then not handled.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 0, 10<<20), 10<<20)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.handleMessage(ctx, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("rpc: read stdin: %w", err)
	}
	return nil
}

func (s *Server) handleMessage(ctx context.Context, data []byte) {
	if len(data) > 0 && data[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(data, &batch); err != nil {
			s.writeResponse(response{JSONRPC: "2.0", ID: json.RawMessage("null"), Error: &rpcError{Code: errCodeParse, Message: "parse error"}})
			return
		}
		for _, raw := range batch {
			s.handleSingleMessage(ctx, raw)
		}
		return
	}
	s.handleSingleMessage(ctx, data)
}

func (s *Server) handleSingleMessage(ctx context.Context, data []byte) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		s.writeResponse(response{JSONRPC: "2.0", ID: json.RawMessage("null"), Error: &rpcError{Code: errCodeParse, Message: "parse error"}})
		return
	}
	if resp := s.dispatch(ctx, &req); resp != nil {
		s.writeResponse(*resp)
	}
}

func (s *Server) dispatch(ctx context.Context, req *request) *response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized", "notifications/cancelled":
		return nil
	case "ping":
		return s.respond(req.ID, struct{}{})
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		if req.isNotification() {
			return nil
		}
		return s.respondError(req.ID, errCodeMethodNotFound, "method not found: "+req.Method)
	}
}

// handleInitialize classifies the connecting client from clientInfo.name
// (§4.8) so subsequent tools/list descriptions can include a
// client-specific update command.
func (s *Server) handleInitialize(req *request) *response {
	var params initializeParams
	_ = json.Unmarshal(req.Params, &params)

	s.clientMu.Lock()
	s.client = versioncheck.ClassifyClient(params.ClientInfo.Name)
	s.clientMu.Unlock()

	return s.respond(req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    serverCapabilities{Tools: &capability{}},
		ServerInfo:      serverInfo{Name: s.name, Version: s.version},
	})
}

func (s *Server) handleToolsList(req *request) *response {
	defs := make([]ToolDefinition, len(s.tools))
	for i, t := range s.tools {
		defs[i] = ToolDefinition{Name: t.name, Description: t.describe(), InputSchema: t.inputSchema}
	}
	return s.respond(req.ID, toolsListResult{Tools: defs})
}

// handleToolsCall dispatches tools/call by case-insensitive tool name
// (§4.7). Unknown tools and handler panics never escape as JSON-RPC
// errors; they come back as an isError tool result, per the
// "server never throws out of the dispatch loop" rule.
func (s *Server) handleToolsCall(ctx context.Context, req *request) (resp *response) {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.respondError(req.ID, errCodeInvalidParams, "invalid params: "+err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("rpc: tool handler panicked", "tool", params.Name, "recover", r)
			resp = s.respond(req.ID, errorResult(fmt.Errorf("internal: %v", r)))
		}
	}()

	for _, t := range s.tools {
		if strings.EqualFold(t.name, params.Name) {
			return s.respond(req.ID, t.execute(ctx, params.Arguments))
		}
	}
	return s.respond(req.ID, errorResult(fmt.Errorf("unknown tool: %s", params.Name)))
}

func (s *Server) respond(id json.RawMessage, result any) *response {
	return &response{JSONRPC: "2.0", ID: id, Result: result}
}

func (s *Server) respondError(id json.RawMessage, code int, message string) *response {
	return &response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}

func (s *Server) writeResponse(resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("rpc: marshal response", "error", err)
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writer.Write(data); err != nil {
		slog.Error("rpc: write response", "error", err)
	}
}

// describeBase renders the enabled-vendor set and, when outdated, an
// update notice: the common suffix every tool description shares.
func (s *Server) describeBase(ctx context.Context) string {
	enabled := s.cfg.EnabledAgents()
	sort.Strings(enabled)
	text := fmt.Sprintf(" Enabled agents: %s.", strings.Join(enabled, ", "))

	if s.checker != nil {
		s.clientMu.Lock()
		client := s.client
		s.clientMu.Unlock()

		latest := s.checker.Latest(ctx)
		text += versioncheck.UpdateNotice(client, s.name, s.version, latest)
	}
	return text
}
