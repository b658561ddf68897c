package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"imvu-insight-api/internal/middleware"
	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/service"
	"imvu-insight-api/pkg/apierror"
	"imvu-insight-api/pkg/response"
)

// QueryHandler serves the paginated, developer-scoped read endpoints.
type QueryHandler struct {
	svc *service.QueryService
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(svc *service.QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

// ListProducts handles POST /product/list
func (h *QueryHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	principal, req, ok := decodeList(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListProducts(r.Context(), principal.UserID, req)
	writeList(w, items, total, req, err)
}

// ListImvuUsers handles POST /imvu_user/list
func (h *QueryHandler) ListImvuUsers(w http.ResponseWriter, r *http.Request) {
	principal, req, ok := decodeList(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListImvuUsers(r.Context(), principal.UserID, req)
	writeList(w, items, total, req, err)
}

// ListBuyers handles POST /buyer/list
func (h *QueryHandler) ListBuyers(w http.ResponseWriter, r *http.Request) {
	principal, req, ok := decodeList(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListBuyers(r.Context(), principal.UserID, req)
	writeList(w, items, total, req, err)
}

// ListRecipients handles POST /recipient/list
func (h *QueryHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	principal, req, ok := decodeList(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListRecipients(r.Context(), principal.UserID, req)
	writeList(w, items, total, req, err)
}

// ListTransactions handles POST /income_transaction/list
func (h *QueryHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}
	var req service.TransactionListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	req.Normalize()
	items, total, err := h.svc.ListTransactions(r.Context(), principal.UserID, req)
	writeList(w, items, total, req.ListRequest, err)
}

func decodeList(w http.ResponseWriter, r *http.Request) (*model.Principal, service.ListRequest, bool) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		response.Error(w, apierror.Unauthorized(""))
		return nil, service.ListRequest{}, false
	}
	var req service.ListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return nil, service.ListRequest{}, false
	}
	req.Normalize()
	return principal, req, true
}

func writeList(w http.ResponseWriter, items interface{}, total int64, req service.ListRequest, err error) {
	var sortErr *service.SortError
	if errors.As(err, &sortErr) {
		response.Error(w, apierror.BadRequest(sortErr.Error()))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Paginated(w, total, req.Page, req.PageSize, items)
}
