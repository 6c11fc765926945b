package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

// mockPipeline is a configurable EmailPipeline for tool tests.
type mockPipeline struct {
	quote         *models.StructuredQuote
	extractErr    error
	processResult *models.ProcessResult
	auditResult   *models.AuditResult

	lastText    string
	lastRFQID   uuid.UUID
	lastQuoteID uuid.UUID
	calls       int
}

func (m *mockPipeline) ExtractEmailData(ctx context.Context, emailText string) (*models.StructuredQuote, error) {
	m.calls++
	m.lastText = emailText
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.quote, nil
}

func (m *mockPipeline) ProcessEmailText(ctx context.Context, emailText string, rfqID uuid.UUID) *models.ProcessResult {
	m.calls++
	m.lastText = emailText
	m.lastRFQID = rfqID
	return m.processResult
}

func (m *mockPipeline) CheckMissingFieldsAndGenerateEmail(ctx context.Context, quoteID uuid.UUID) *models.AuditResult {
	m.calls++
	m.lastQuoteID = quoteID
	return m.auditResult
}

func (m *mockPipeline) ProcessBatch(ctx context.Context, submissions []services.EmailSubmission) []services.BatchResult {
	return nil
}

var _ services.EmailPipeline = (*mockPipeline)(nil)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

// toolResponse is the decoded JSON-RPC reply to a tools/call request.
type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callTool sends a tools/call request through the server and decodes the reply.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()

	params, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	request := fmt.Sprintf(`{"jsonrpc":"2.0","method":"tools/call","params":%s,"id":1}`, params)
	result := s.HandleMessage(context.Background(), []byte(request))

	resultBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	var response toolResponse
	if err := json.Unmarshal(resultBytes, &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return response
}

func (r toolResponse) text() string {
	if len(r.Result.Content) == 0 {
		return ""
	}
	return r.Result.Content[0].Text
}

func strPtr(s string) *string { return &s }
