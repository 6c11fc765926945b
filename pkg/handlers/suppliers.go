package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/services"
)

// CreateSupplierRequest for POST /api/suppliers
type CreateSupplierRequest struct {
	CompanyName      string  `json:"company_name"`
	MainContactName  *string `json:"main_contact_name,omitempty"`
	MainContactEmail *string `json:"main_contact_email,omitempty"`
	MainContactPhone *string `json:"main_contact_phone,omitempty"`
	HQAddress        *string `json:"hq_address,omitempty"`
	PaymentTerms     *string `json:"payment_terms,omitempty"`
}

// SupplierListResponse for GET /api/suppliers
type SupplierListResponse struct {
	Suppliers []*models.Supplier `json:"suppliers"`
	Total     int                `json:"total"`
}

// SupplierHandler handles supplier administration.
// Suppliers are addressed by company name, their natural key.
type SupplierHandler struct {
	supplierService services.SupplierService
	logger          *zap.Logger
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(supplierService services.SupplierService, logger *zap.Logger) *SupplierHandler {
	return &SupplierHandler{
		supplierService: supplierService,
		logger:          logger,
	}
}

// RegisterRoutes registers the supplier handler's routes on the given mux.
func (h *SupplierHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	base := "/api/suppliers"

	mux.HandleFunc("GET "+base, scope(h.List))
	mux.HandleFunc("POST "+base, scope(h.Create))
	mux.HandleFunc("GET "+base+"/{name}", scope(h.Get))
	mux.HandleFunc("PATCH "+base+"/{name}", scope(h.Update))
	mux.HandleFunc("DELETE "+base+"/{name}", scope(h.Delete))
}

// List handles GET /api/suppliers
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.supplierService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_suppliers_failed", "Failed to list suppliers")
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, SupplierListResponse{Suppliers: suppliers, Total: len(suppliers)})
}

// Create handles POST /api/suppliers
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSupplierRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeBadRequest(w, h.logger, err.Error())
		return
	}

	supplier := &models.Supplier{
		CompanyName:      req.CompanyName,
		MainContactName:  trimmedOrNil(req.MainContactName),
		MainContactEmail: trimmedOrNil(req.MainContactEmail),
		MainContactPhone: trimmedOrNil(req.MainContactPhone),
		HQAddress:        trimmedOrNil(req.HQAddress),
		PaymentTerms:     trimmedOrNil(req.PaymentTerms),
	}

	if err := h.supplierService.Create(r.Context(), supplier); err != nil {
		writeServiceError(w, h.logger, err, "create_supplier_failed", "Supplier "+supplier.CompanyName)
		return
	}
	writeSuccess(w, h.logger, http.StatusCreated, supplier)
}

// Get handles GET /api/suppliers/{name}
func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	supplier, err := h.supplierService.Get(r.Context(), name)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_supplier_failed", "Supplier "+name)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, supplier)
}

// Update handles PATCH /api/suppliers/{name}. Only contact fields may change;
// any other key, including company_name, is rejected.
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var update models.SupplierUpdate
	if err := decodeJSON(w, r, &update, true); err != nil {
		writeBadRequest(w, h.logger, err.Error())
		return
	}

	supplier, err := h.supplierService.Update(r.Context(), name, &update)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_supplier_failed", "Supplier "+name)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, supplier)
}

// Delete handles DELETE /api/suppliers/{name}. The supplier's quotes are
// deleted with it.
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.supplierService.Delete(r.Context(), name); err != nil {
		writeServiceError(w, h.logger, err, "delete_supplier_failed", "Supplier "+name)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// trimmedOrNil returns nil for blank strings.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
