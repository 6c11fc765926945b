package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/extraction"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

// maxBatchSize caps the submissions accepted by one batch request.
const maxBatchSize = 100

// writeMargin is the time left to encode a response after processing ends.
const writeMargin = 30 * time.Second

// EmailTextRequest for POST /api/extract and POST /api/rfqs/{rid}/emails
type EmailTextRequest struct {
	EmailText string `json:"email_text"`
}

// BatchRequest for POST /api/emails/batch
type BatchRequest struct {
	Submissions []services.EmailSubmission `json:"submissions"`
}

// BatchResponse for POST /api/emails/batch
type BatchResponse struct {
	Results   []services.BatchResult `json:"results"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
}

// ExtractionErrorResponse is returned when the model output cannot be used.
type ExtractionErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// EmailHandler exposes the supplier email pipeline: extraction, processing
// against an RFQ, batches and follow-up drafting.
type EmailHandler struct {
	pipeline         services.EmailPipeline
	timeout          time.Duration
	batchConcurrency int
	logger           *zap.Logger
}

// NewEmailHandler creates a new email handler. timeout bounds each email;
// zero disables the bound. batchConcurrency must match the pipeline's worker
// pool so batch deadlines cover every round of work.
func NewEmailHandler(pipeline services.EmailPipeline, timeout time.Duration, batchConcurrency int, logger *zap.Logger) *EmailHandler {
	if batchConcurrency < 1 {
		batchConcurrency = 1
	}
	return &EmailHandler{
		pipeline:         pipeline,
		timeout:          timeout,
		batchConcurrency: batchConcurrency,
		logger:           logger,
	}
}

// RegisterRoutes registers the email handler's routes on the given mux.
// The pipeline manages its own database scopes so connections are not held
// during model calls.
func (h *EmailHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/extract", h.Extract)
	mux.HandleFunc("POST /api/rfqs/{rid}/emails", h.Process)
	mux.HandleFunc("POST /api/emails/batch", h.Batch)
	mux.HandleFunc("POST /api/quotes/{qid}/follow-up", h.FollowUp)
}

// Extract handles POST /api/extract. Nothing is stored.
func (h *EmailHandler) Extract(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readEmailText(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	quote, err := h.pipeline.ExtractEmailData(ctx, text)
	if err != nil {
		var failure *extraction.Failure
		if errors.As(err, &failure) {
			if err := WriteJSON(w, http.StatusUnprocessableEntity, ExtractionErrorResponse{
				Error:   "extraction_failed",
				Reason:  string(failure.Reason),
				Field:   failure.Field,
				Message: failure.Error(),
			}); err != nil {
				h.logger.Error("Failed to write response", zap.Error(err))
			}
			return
		}
		writeServiceError(w, h.logger, err, "extraction_failed", "Failed to extract email")
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, quote)
}

// Process handles POST /api/rfqs/{rid}/emails
func (h *EmailHandler) Process(w http.ResponseWriter, r *http.Request) {
	rfqID, ok := ParseRFQID(w, r, h.logger)
	if !ok {
		return
	}
	text, ok := h.readEmailText(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	result := h.pipeline.ProcessEmailText(ctx, text, rfqID)
	if err := WriteJSON(w, processStatusCode(result), ApiResponse{
		Success: result.Status == models.ProcessStatusSuccess,
		Data:    result,
		Error:   string(result.Reason),
		Message: result.Message,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Batch handles POST /api/emails/batch
func (h *EmailHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeBadRequest(w, h.logger, err.Error())
		return
	}
	if len(req.Submissions) == 0 {
		writeBadRequest(w, h.logger, "submissions must not be empty")
		return
	}
	if len(req.Submissions) > maxBatchSize {
		writeBadRequest(w, h.logger, "too many submissions in one batch")
		return
	}

	ctx, cancel := h.withBatchTimeout(w, r, len(req.Submissions))
	defer cancel()

	results := h.pipeline.ProcessBatch(ctx, req.Submissions)

	response := BatchResponse{Results: results}
	for _, res := range results {
		if res.Result.Status == models.ProcessStatusSuccess {
			response.Succeeded++
		} else {
			response.Failed++
		}
	}
	writeSuccess(w, h.logger, http.StatusOK, response)
}

// FollowUp handles POST /api/quotes/{qid}/follow-up. Returns the missing
// fields of the quote and the email asking the supplier for them.
func (h *EmailHandler) FollowUp(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := ParseQuoteID(w, r, h.logger)
	if !ok {
		return
	}

	result := h.pipeline.CheckMissingFieldsAndGenerateEmail(r.Context(), quoteID)

	status := http.StatusOK
	if result.Status == models.AuditStatusFail {
		status = http.StatusInternalServerError
		if result.Message == "Quote not found." {
			status = http.StatusNotFound
		}
	}
	if err := WriteJSON(w, status, ApiResponse{
		Success: result.Status != models.AuditStatusFail,
		Data:    result,
		Message: result.Message,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *EmailHandler) readEmailText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req EmailTextRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeBadRequest(w, h.logger, err.Error())
		return "", false
	}
	if strings.TrimSpace(req.EmailText) == "" {
		writeBadRequest(w, h.logger, "email_text is required")
		return "", false
	}
	return req.EmailText, true
}

func (h *EmailHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

// BatchTimeout is the processing budget for n submissions: one per-email
// timeout for every round of batchConcurrency emails. Zero means unbounded.
func (h *EmailHandler) BatchTimeout(n int) time.Duration {
	if h.timeout <= 0 {
		return 0
	}
	rounds := (n + h.batchConcurrency - 1) / h.batchConcurrency
	return time.Duration(rounds) * h.timeout
}

// withBatchTimeout bounds a batch by BatchTimeout and moves this response's
// write deadline past it, since the server-wide WriteTimeout is sized for a
// single email.
func (h *EmailHandler) withBatchTimeout(w http.ResponseWriter, r *http.Request, n int) (context.Context, context.CancelFunc) {
	budget := h.BatchTimeout(n)
	if budget <= 0 {
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			h.logger.Debug("Cannot clear write deadline", zap.Error(err))
		}
		return context.WithCancel(r.Context())
	}

	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(budget + writeMargin)); err != nil {
		h.logger.Debug("Cannot extend write deadline", zap.Error(err))
	}
	return context.WithTimeout(r.Context(), budget)
}

func processStatusCode(result *models.ProcessResult) int {
	if result.Status == models.ProcessStatusSuccess {
		return http.StatusCreated
	}
	switch result.Reason {
	case models.FailureReasonNotFound:
		return http.StatusNotFound
	case models.FailureReasonExtraction, models.FailureReasonInvalidQuote:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
