package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

// UpdateQuoteRequest for PATCH /api/quotes/{qid}. Omitted fields are unchanged.
type UpdateQuoteRequest struct {
	DateSubmitted        *string   `json:"date_submitted,omitempty"` // YYYY-MM-DD
	PricePerUnit         *float64  `json:"price_per_unit,omitempty"`
	CountryOfOrigin      *string   `json:"country_of_origin,omitempty"`
	Certifications       *[]string `json:"certifications,omitempty"`
	MinimumOrderQuantity *int64    `json:"minimum_order_quantity,omitempty"`
}

// EmailListResponse for GET /api/quotes/{qid}/emails
type EmailListResponse struct {
	Emails []*models.Email `json:"emails"`
	Total  int             `json:"total"`
}

// QuoteHandler handles quote reads and manual corrections.
type QuoteHandler struct {
	quoteService services.QuoteService
	logger       *zap.Logger
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(quoteService services.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// RegisterRoutes registers the quote handler's routes on the given mux.
func (h *QuoteHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	base := "/api/quotes/{qid}"

	mux.HandleFunc("GET "+base, scope(h.Get))
	mux.HandleFunc("PATCH "+base, scope(h.Update))
	mux.HandleFunc("GET "+base+"/emails", scope(h.ListEmails))
}

// Get handles GET /api/quotes/{qid}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseQuoteID(w, r, h.logger)
	if !ok {
		return
	}

	quote, err := h.quoteService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_quote_failed", "Quote "+id.String())
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, quote)
}

// Update handles PATCH /api/quotes/{qid}
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseQuoteID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateQuoteRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeBadRequest(w, h.logger, err.Error())
		return
	}

	submitted, err := parseDate(req.DateSubmitted)
	if err != nil {
		writeBadRequest(w, h.logger, "date_submitted must be YYYY-MM-DD")
		return
	}

	quote, err := h.quoteService.Update(r.Context(), id, &models.QuoteUpdate{
		DateSubmitted:        submitted,
		PricePerUnit:         req.PricePerUnit,
		CountryOfOrigin:      req.CountryOfOrigin,
		Certifications:       req.Certifications,
		MinimumOrderQuantity: req.MinimumOrderQuantity,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "update_quote_failed", "Quote "+id.String())
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, quote)
}

// ListEmails handles GET /api/quotes/{qid}/emails
func (h *QuoteHandler) ListEmails(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseQuoteID(w, r, h.logger)
	if !ok {
		return
	}

	emails, err := h.quoteService.ListEmails(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_emails_failed", "Quote "+id.String())
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, EmailListResponse{Emails: emails, Total: len(emails)})
}
