package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/rfqportal/pkg/logging"
)

func respondWith(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func callTool(t *testing.T, handler http.Handler, reqBody string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMCPRequestLogger(t *testing.T) {
	t.Run("logs successful tool call", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		wrapped := MCPRequestLogger(zap.New(core))(respondWith(
			`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{}"}]}}`))

		counter := mcpToolCallsTotal.WithLabelValues("health", "success")
		before := testutil.ToFloat64(counter)

		rec := callTool(t, wrapped, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"health","arguments":{}}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 2, logs.Len(), "Should log request and response")

		requestLog := logs.All()[0]
		assert.Equal(t, "MCP request", requestLog.Message)
		assert.Equal(t, "tools/call", requestLog.ContextMap()["method"])
		assert.Equal(t, "health", requestLog.ContextMap()["tool"])

		responseLog := logs.All()[1]
		assert.Equal(t, "MCP response success", responseLog.Message)
		assert.NotNil(t, responseLog.ContextMap()["duration"])

		assert.Equal(t, 1.0, testutil.ToFloat64(counter)-before)
	})

	t.Run("logs JSON-RPC error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		wrapped := MCPRequestLogger(zap.New(core))(respondWith(
			`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"tool not found"}}`))

		callTool(t, wrapped, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope"}}`)

		require.Equal(t, 2, logs.Len())
		responseLog := logs.All()[1]
		assert.Equal(t, "MCP response error", responseLog.Message)
		assert.Equal(t, int64(-32602), responseLog.ContextMap()["error_code"])
		assert.Equal(t, "tool not found", responseLog.ContextMap()["error_message"])
	})

	t.Run("counts tool results flagged as errors", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		wrapped := MCPRequestLogger(zap.New(core))(respondWith(
			`{"jsonrpc":"2.0","id":1,"result":{"isError":true,"content":[{"type":"text","text":"RFQ not found."}]}}`))

		counter := mcpToolCallsTotal.WithLabelValues("process_email_text", "tool_error")
		before := testutil.ToFloat64(counter)

		callTool(t, wrapped, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"process_email_text","arguments":{"rfq_id":"x"}}}`)

		require.Equal(t, 2, logs.Len())
		assert.Equal(t, "MCP tool error", logs.All()[1].Message)
		assert.Equal(t, 1.0, testutil.ToFloat64(counter)-before)
	})

	t.Run("truncates email text", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		wrapped := MCPRequestLogger(zap.New(core))(respondWith(`{"jsonrpc":"2.0","id":1,"result":{}}`))

		email := strings.Repeat("Dear buyer,\\n", 50)
		callTool(t, wrapped, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"extract_email_data","arguments":{"email_text":"`+email+`"}}}`)

		args := logs.All()[0].ContextMap()["arguments"].(map[string]interface{})
		logged := args["email_text"].(string)
		assert.NotContains(t, logged, "\n")
		assert.True(t, strings.HasSuffix(logged, "..."))
		assert.LessOrEqual(t, len([]rune(logged)), logging.MaxEmailLogLength+3)
	})

	t.Run("redacts sensitive arguments", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		wrapped := MCPRequestLogger(zap.New(core))(respondWith(`{"jsonrpc":"2.0","id":1,"result":{}}`))

		callTool(t, wrapped, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"t","arguments":{"api_key":"abc","quote_id":"visible"}}}`)

		args := logs.All()[0].ContextMap()["arguments"].(map[string]interface{})
		assert.Equal(t, logging.RedactedText, args["api_key"])
		assert.Equal(t, "visible", args["quote_id"])
	})

	t.Run("nil logger still counts tool calls", func(t *testing.T) {
		counter := mcpToolCallsTotal.WithLabelValues("process_email_text", "tool_error")
		before := testutil.ToFloat64(counter)

		wrapped := MCPRequestLogger(nil)(respondWith(`{"jsonrpc":"2.0","id":1,"result":{"isError":true}}`))
		rec := callTool(t, wrapped, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"process_email_text","arguments":{}}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(counter)-before)
	})

	t.Run("request body is still readable downstream", func(t *testing.T) {
		core, _ := observer.New(zapcore.DebugLevel)
		var seen string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buf := new(bytes.Buffer)
			_, _ = buf.ReadFrom(r.Body)
			seen = buf.String()
		})

		body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
		callTool(t, MCPRequestLogger(zap.New(core))(handler), body)

		assert.Equal(t, body, seen)
	})
}

func TestSanitizeArguments_Nil(t *testing.T) {
	assert.Nil(t, sanitizeArguments(nil))
}
