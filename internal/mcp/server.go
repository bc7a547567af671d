// Package mcp serves the tool catalog over MCP: JSON-RPC 2.0, one JSON
// object per line, on stdio or TCP.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"coderd/internal/domain"
	"coderd/internal/metrics"
	"coderd/internal/tool"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "coder"
)

// Server dispatches MCP requests against a sealed tool registry. Each
// request runs on its own goroutine; responses are matched by id, not by
// arrival order, so a slow command never stalls unrelated calls.
type Server struct {
	reg     *tool.Registry
	version string
	logger  *slog.Logger

	ln     net.Listener
	mu     sync.Mutex
	closed bool
}

func NewServer(reg *tool.Registry, version string, logger *slog.Logger) *Server {
	return &Server{reg: reg, version: version, logger: logger}
}

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Serve reads requests from r and writes responses to w until r is
// exhausted. It returns after every in-flight request has finished.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var wmu sync.Mutex
	var wg sync.WaitGroup

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		// The scanner reuses its buffer and Params aliases the line, so
		// every request needs its own copy before it leaves this loop.
		line = append([]byte(nil), line...)

		var req jsonRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, &wmu, jsonRPCResponse{
				JSONRPC: "2.0",
				ID:      nil,
				Error:   &rpcError{Code: -32700, Message: "parse error"},
			})
			continue
		}

		// Notifications carry no id and get no response.
		if req.ID == nil || strings.HasPrefix(req.Method, "notifications/") {
			continue
		}

		wg.Add(1)
		go func(req jsonRPCRequest) {
			defer wg.Done()
			s.write(w, &wmu, s.dispatch(ctx, req))
		}(req)
	}
	wg.Wait()
	return scanner.Err()
}

// ListenAndServe accepts TCP connections on addr and runs Serve on each.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("mcp server listening", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			s.logger.Error("mcp accept error", "error", err)
			continue
		}
		go func(conn net.Conn) {
			defer conn.Close()
			if err := s.Serve(ctx, conn, conn); err != nil {
				s.logger.Warn("mcp connection error", "error", err)
			}
		}(conn)
	}
}

// Shutdown stops accepting connections. In-flight requests on open
// connections drain through their own Serve loops.
func (s *Server) Shutdown(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Server) write(w io.Writer, mu *sync.Mutex, resp jsonRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	mu.Lock()
	defer mu.Unlock()
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

func (s *Server) dispatch(ctx context.Context, req jsonRPCRequest) jsonRPCResponse {
	base := jsonRPCResponse{JSONRPC: "2.0", ID: req.ID}
	metrics.ObserveRequest(req.Method)

	switch req.Method {
	case "initialize":
		base.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{"listChanged": false}},
			"serverInfo":      map[string]any{"name": serverName, "version": s.version},
		}
		return base

	case "tools/list":
		base.Result = map[string]any{"tools": s.reg.Descriptors()}
		return base

	case "tools/call":
		return s.handleToolCall(ctx, req, base)

	default:
		base.Error = &rpcError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return base
	}
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolCall(ctx context.Context, req jsonRPCRequest, base jsonRPCResponse) jsonRPCResponse {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		base.Error = &rpcError{Code: -32602, Message: "invalid params: " + err.Error()}
		return base
	}

	env := s.reg.Invoke(ctx, params.Name, params.Arguments)

	// Catalog-level failures are protocol errors; everything else rides
	// inside the envelope with isError false.
	switch env.Kind() {
	case domain.KindUnknownTool, domain.KindInvalidArguments:
		base.Error = &rpcError{Code: -32602, Message: env.Err()}
		return base
	}

	text, err := json.Marshal(env)
	if err != nil {
		base.Error = &rpcError{Code: -32603, Message: "marshal envelope: " + err.Error()}
		return base
	}
	base.Result = map[string]any{
		"content": []map[string]string{{"type": "text", "text": string(text)}},
		"isError": false,
	}
	return base
}
