package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/hylla/joinboard/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
)

// stubBoardService provides deterministic board responses for MCP tool tests.
type stubBoardService struct {
	board      common.BoardSnapshot
	task       common.TaskView
	err        error
	lastBoard  common.BoardRequest
	lastMove   common.MoveTaskRequest
	lastToggle common.ToggleSubtaskRequest
}

// Board records the latest request and returns one fixture result.
func (s *stubBoardService) Board(_ context.Context, req common.BoardRequest) (common.BoardSnapshot, error) {
	s.lastBoard = req
	if s.err != nil {
		return common.BoardSnapshot{}, s.err
	}
	return s.board, nil
}

// MoveTask records the latest request and returns one fixture task.
func (s *stubBoardService) MoveTask(_ context.Context, req common.MoveTaskRequest) (common.TaskView, error) {
	s.lastMove = req
	if s.err != nil {
		return common.TaskView{}, s.err
	}
	return s.task, nil
}

// ToggleSubtask records the latest request and returns one fixture task.
func (s *stubBoardService) ToggleSubtask(_ context.Context, req common.ToggleSubtaskRequest) (common.TaskView, error) {
	s.lastToggle = req
	if s.err != nil {
		return common.TaskView{}, s.err
	}
	return s.task, nil
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "joinboard-test",
				"version": "1.0.0",
			},
		},
	}
}

// newTestServer starts one MCP handler over the stub service.
func newTestServer(t *testing.T, stub *stubBoardService) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, stub)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubBoardService{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersBoardTools verifies tool discovery lists every board tool.
func TestHandlerRegistersBoardTools(t *testing.T) {
	server := newTestServer(t, &stubBoardService{})
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})

	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, want := range []string{"joinboard.board", "joinboard.move_task", "joinboard.toggle_subtask"} {
		if !slices.Contains(toolNames, want) {
			t.Fatalf("tool list missing %s: %#v", want, toolNames)
		}
	}
}

// TestHandlerMoveTaskToolCall verifies argument mapping and structured results.
func TestHandlerMoveTaskToolCall(t *testing.T) {
	stub := &stubBoardService{task: common.TaskView{ID: "t1", Title: "Write docs", Column: "done"}}
	server := newTestServer(t, stub)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "joinboard.move_task", map[string]any{
		"user_id": "guest",
		"task_id": "t1",
		"column":  "done",
	}))
	result, ok := callResp.Result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in response: %#v", callResp.Result)
	}
	if got, _ := result["column"].(string); got != "done" {
		t.Fatalf("column = %q, want done", got)
	}
	want := common.MoveTaskRequest{UserID: "guest", TaskID: "t1", Column: "done"}
	if stub.lastMove != want {
		t.Fatalf("move request = %#v, want %#v", stub.lastMove, want)
	}
}

// TestHandlerToggleAndBoardToolCalls verifies the remaining tools.
func TestHandlerToggleAndBoardToolCalls(t *testing.T) {
	stub := &stubBoardService{
		board: common.BoardSnapshot{UserID: "guest", Columns: []common.ColumnView{{ID: "toDo", Zone: "categoryToDo", Title: "To do"}}},
		task:  common.TaskView{ID: "t1", Subtasks: []common.SubtaskView{{Title: "Outline", Done: true}}},
	}
	server := newTestServer(t, stub)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "joinboard.toggle_subtask", map[string]any{
		"user_id": "guest",
		"task_id": "t1",
		"index":   1,
	}))
	if stub.lastToggle.Index != 1 || stub.lastToggle.TaskID != "t1" {
		t.Fatalf("toggle request = %#v", stub.lastToggle)
	}
	if text := toolResultText(t, callResp.Result); !strings.Contains(text, `"done":true`) {
		t.Fatalf("toggle text = %s", text)
	}

	_, callResp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "joinboard.board", map[string]any{
		"user_id": "guest",
	}))
	if stub.lastBoard.UserID != "guest" {
		t.Fatalf("board request = %#v", stub.lastBoard)
	}
	if text := toolResultText(t, callResp.Result); !strings.Contains(text, "categoryToDo") {
		t.Fatalf("board text = %s", text)
	}
}

// TestHandlerToolErrors verifies error mapping surfaces as tool errors.
func TestHandlerToolErrors(t *testing.T) {
	stub := &stubBoardService{err: errors.Join(common.ErrNotFound, errors.New("task t9"))}
	server := newTestServer(t, stub)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(6, "joinboard.move_task", map[string]any{
		"user_id": "guest",
		"task_id": "t9",
		"column":  "done",
	}))
	if isErr, _ := callResp.Result["isError"].(bool); !isErr {
		t.Fatalf("isError missing: %#v", callResp.Result)
	}
	if text := toolResultText(t, callResp.Result); !strings.HasPrefix(text, "not_found:") {
		t.Fatalf("error text = %q, want not_found prefix", text)
	}
}

// TestToolResultFromErrorMapping verifies sentinel prefixes.
func TestToolResultFromErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: nil, want: "unknown error"},
		{err: common.ErrInvalidRequest, want: "invalid_request: "},
		{err: common.ErrNotFound, want: "not_found: "},
		{err: errors.New("boom"), want: "internal_error: boom"},
	}
	for _, tc := range cases {
		result := toolResultFromError(tc.err)
		text, ok := result.Content[0].(mcp.TextContent)
		if !ok {
			t.Fatalf("content[0] has unexpected type %T", result.Content[0])
		}
		if !strings.HasPrefix(text.Text, tc.want) {
			t.Fatalf("toolResultFromError(%v) = %q, want prefix %q", tc.err, text.Text, tc.want)
		}
	}
}

// TestNewHandlerRequiresBoardService verifies dependency enforcement.
func TestNewHandlerRequiresBoardService(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("expected error without board service")
	}
}

// TestNormalizeConfig verifies defaults and endpoint normalization.
func TestNormalizeConfig(t *testing.T) {
	got := normalizeConfig(Config{EndpointPath: "tools/"})
	if got.ServerName != "joinboard" || got.ServerVersion != "dev" || got.EndpointPath != "/tools" {
		t.Fatalf("normalizeConfig() = %#v", got)
	}
}
