package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

// CreateRFQRequest for POST /api/rfqs
type CreateRFQRequest struct {
	Item                   string   `json:"item"`
	DueDate                *string  `json:"due_date,omitempty"` // YYYY-MM-DD
	AmountRequired         *float64 `json:"amount_required,omitempty"`
	ShipToLocation         *string  `json:"ship_to_location,omitempty"`
	RequiredCertifications []string `json:"required_certifications,omitempty"`
}

// UpdateRFQRequest for PATCH /api/rfqs/{rid}. Omitted fields are unchanged.
type UpdateRFQRequest struct {
	Item                   *string   `json:"item,omitempty"`
	DueDate                *string   `json:"due_date,omitempty"`
	AmountRequired         *float64  `json:"amount_required,omitempty"`
	ShipToLocation         *string   `json:"ship_to_location,omitempty"`
	RequiredCertifications *[]string `json:"required_certifications,omitempty"`
}

// RFQListResponse for GET /api/rfqs
type RFQListResponse struct {
	RFQs  []*models.RFQ `json:"rfqs"`
	Total int           `json:"total"`
}

// QuoteComparisonResponse for GET /api/rfqs/{rid}/quotes
type QuoteComparisonResponse struct {
	RFQID  string                      `json:"rfq_id"`
	Quotes []*models.QuoteWithSupplier `json:"quotes"`
	Total  int                         `json:"total"`
}

// RFQHandler handles RFQ administration and the quote comparison view.
type RFQHandler struct {
	rfqService   services.RFQService
	quoteService services.QuoteService
	logger       *zap.Logger
}

// NewRFQHandler creates a new RFQ handler.
func NewRFQHandler(rfqService services.RFQService, quoteService services.QuoteService, logger *zap.Logger) *RFQHandler {
	return &RFQHandler{
		rfqService:   rfqService,
		quoteService: quoteService,
		logger:       logger,
	}
}

// RegisterRoutes registers the RFQ handler's routes on the given mux.
func (h *RFQHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	base := "/api/rfqs"

	mux.HandleFunc("GET "+base, scope(h.List))
	mux.HandleFunc("POST "+base, scope(h.Create))
	mux.HandleFunc("GET "+base+"/{rid}", scope(h.Get))
	mux.HandleFunc("PATCH "+base+"/{rid}", scope(h.Update))
	mux.HandleFunc("DELETE "+base+"/{rid}", scope(h.Delete))
	mux.HandleFunc("GET "+base+"/{rid}/quotes", scope(h.ListQuotes))
}

// List handles GET /api/rfqs
func (h *RFQHandler) List(w http.ResponseWriter, r *http.Request) {
	rfqs, err := h.rfqService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_rfqs_failed", "Failed to list RFQs")
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, RFQListResponse{RFQs: rfqs, Total: len(rfqs)})
}

// Create handles POST /api/rfqs
func (h *RFQHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRFQRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeBadRequest(w, h.logger, err.Error())
		return
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		writeBadRequest(w, h.logger, "due_date must be YYYY-MM-DD")
		return
	}

	rfq := &models.RFQ{
		Item:           req.Item,
		DueDate:        dueDate,
		AmountRequired: req.AmountRequired,
		ShipToLocation: req.ShipToLocation,
	}
	if len(req.RequiredCertifications) > 0 {
		joined := models.JoinCertifications(req.RequiredCertifications)
		rfq.RequiredCertifications = &joined
	}

	if err := h.rfqService.Create(r.Context(), rfq); err != nil {
		writeServiceError(w, h.logger, err, "create_rfq_failed", "Failed to create RFQ")
		return
	}
	writeSuccess(w, h.logger, http.StatusCreated, rfq)
}

// Get handles GET /api/rfqs/{rid}
func (h *RFQHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRFQID(w, r, h.logger)
	if !ok {
		return
	}

	rfq, err := h.rfqService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_rfq_failed", "RFQ "+id.String())
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, rfq)
}

// Update handles PATCH /api/rfqs/{rid}
func (h *RFQHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRFQID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateRFQRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeBadRequest(w, h.logger, err.Error())
		return
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		writeBadRequest(w, h.logger, "due_date must be YYYY-MM-DD")
		return
	}

	update := &models.RFQUpdate{
		Item:           req.Item,
		DueDate:        dueDate,
		AmountRequired: req.AmountRequired,
		ShipToLocation: req.ShipToLocation,
	}
	if req.RequiredCertifications != nil {
		joined := models.JoinCertifications(*req.RequiredCertifications)
		update.RequiredCertifications = &joined
	}

	rfq, err := h.rfqService.Update(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_rfq_failed", "RFQ "+id.String())
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, rfq)
}

// Delete handles DELETE /api/rfqs/{rid}
func (h *RFQHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRFQID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.rfqService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "delete_rfq_failed", "RFQ "+id.String())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListQuotes handles GET /api/rfqs/{rid}/quotes, the side-by-side comparison
// of every quote received for an RFQ.
func (h *RFQHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRFQID(w, r, h.logger)
	if !ok {
		return
	}

	quotes, err := h.quoteService.ListForRFQ(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_quotes_failed", "RFQ "+id.String())
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, QuoteComparisonResponse{
		RFQID:  id.String(),
		Quotes: quotes,
		Total:  len(quotes),
	})
}
