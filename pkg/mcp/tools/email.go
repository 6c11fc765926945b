// Package tools provides the MCP tools of the RFQ portal.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

// EmailToolDeps contains dependencies for the supplier email tools.
type EmailToolDeps struct {
	Pipeline services.EmailPipeline
	// Timeout bounds extraction and processing calls. Zero disables it.
	Timeout time.Duration
	Logger  *zap.Logger
}

// RegisterEmailTools registers the extraction, processing and follow-up tools.
func RegisterEmailTools(s *server.MCPServer, deps *EmailToolDeps) {
	registerExtractEmailDataTool(s, deps)
	registerProcessEmailTextTool(s, deps)
	registerCheckMissingFieldsTool(s, deps)
}

func (d *EmailToolDeps) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.Timeout)
}

// registerExtractEmailDataTool adds extract_email_data, a dry run of the
// extraction step. Nothing is stored.
func registerExtractEmailDataTool(s *server.MCPServer, deps *EmailToolDeps) {
	tool := mcp.NewTool(
		"extract_email_data",
		mcp.WithDescription(
			"Extract a structured quote from the text of a supplier email without saving it. "+
				"Returns supplier contact details, price per unit, country of origin, certifications, "+
				"minimum order quantity and submission date. Fields the email does not state are null.",
		),
		mcp.WithString(
			"email_text",
			mcp.Required(),
			mcp.Description("Full text of the supplier email"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, errResult := requireEmailText(req)
		if errResult != nil {
			return errResult, nil
		}

		ctx, cancel := deps.withTimeout(ctx)
		defer cancel()

		quote, err := deps.Pipeline.ExtractEmailData(ctx, text)
		if err != nil {
			if result, ok := extractionErrorResult(err); ok {
				return result, nil
			}
			return nil, fmt.Errorf("failed to extract email data: %w", err)
		}
		return jsonResult(quote)
	})
}

// registerProcessEmailTextTool adds process_email_text, which extracts the
// quote and records it against an RFQ.
func registerProcessEmailTextTool(s *server.MCPServer, deps *EmailToolDeps) {
	tool := mcp.NewTool(
		"process_email_text",
		mcp.WithDescription(
			"Process a supplier email as a quote for an RFQ. "+
				"Extracts the quote, creates the supplier on first contact, saves the quote "+
				"and archives the email. Returns the new quote_id on success.",
		),
		mcp.WithString(
			"email_text",
			mcp.Required(),
			mcp.Description("Full text of the supplier email"),
		),
		mcp.WithString(
			"rfq_id",
			mcp.Required(),
			mcp.Description("UUID of the RFQ the email answers"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, errResult := requireEmailText(req)
		if errResult != nil {
			return errResult, nil
		}
		rfqID, errResult := requireUUID(req, "rfq_id")
		if errResult != nil {
			return errResult, nil
		}

		ctx, cancel := deps.withTimeout(ctx)
		defer cancel()

		result := deps.Pipeline.ProcessEmailText(ctx, text, rfqID)
		if result.Status != models.ProcessStatusSuccess {
			return processFailureResult(result), nil
		}
		return jsonResult(result)
	})
}

// registerCheckMissingFieldsTool adds check_missing_fields_and_generate_email.
func registerCheckMissingFieldsTool(s *server.MCPServer, deps *EmailToolDeps) {
	tool := mcp.NewTool(
		"check_missing_fields_and_generate_email",
		mcp.WithDescription(
			"Check a saved quote for missing information and draft a follow-up email to the supplier. "+
				"Returns status 'success' when nothing is missing, otherwise status 'missing' "+
				"with the missing field names and the email body.",
		),
		mcp.WithString(
			"quote_id",
			mcp.Required(),
			mcp.Description("UUID of the quote to check"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		quoteID, errResult := requireUUID(req, "quote_id")
		if errResult != nil {
			return errResult, nil
		}

		result := deps.Pipeline.CheckMissingFieldsAndGenerateEmail(ctx, quoteID)
		if result.Status == models.AuditStatusFail {
			code := "audit_failed"
			if result.Message == "Quote not found." {
				code = "not_found"
			}
			return NewErrorResult(code, result.Message), nil
		}
		return jsonResult(result)
	})
}

func requireEmailText(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	text, err := req.RequireString("email_text")
	if err != nil {
		return "", NewErrorResult("invalid_parameters", err.Error())
	}
	if strings.TrimSpace(text) == "" {
		return "", NewErrorResult("invalid_parameters", "email_text must not be empty")
	}
	return text, nil
}

func requireUUID(req mcp.CallToolRequest, name string) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString(name)
	if err != nil {
		return uuid.Nil, NewErrorResult("invalid_parameters", err.Error())
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, NewErrorResult("invalid_parameters", fmt.Sprintf("%s must be a UUID", name))
	}
	return id, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
