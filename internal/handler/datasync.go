package handler

import (
	"io"
	"net/http"
	"strconv"

	"imvu-insight-api/internal/middleware"
	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/service"
	"imvu-insight-api/pkg/apierror"
	"imvu-insight-api/pkg/response"
)

// maxUploadBytes bounds multipart memory buffering, not the file size.
const maxUploadBytes = 32 << 20

// DataSyncHandler serves the snapshot upload lifecycle endpoints.
type DataSyncHandler struct {
	svc *service.DataSyncService
}

// NewDataSyncHandler creates a new data-sync handler.
func NewDataSyncHandler(svc *service.DataSyncService) *DataSyncHandler {
	return &DataSyncHandler{svc: svc}
}

// ImportResponse is the payload of a successful import. A parse failure
// still succeeds with imported_count 0: the raw upload is kept either way.
type ImportResponse struct {
	ID            int64  `json:"id"`
	Filename      string `json:"filename"`
	ImportedCount int    `json:"imported_count"`
}

// ImportProduct handles POST /data-sync/product/import
func (h *DataSyncHandler) ImportProduct(w http.ResponseWriter, r *http.Request) {
	h.runImport(w, r, model.DataTypeProduct)
}

// ImportIncome handles POST /data-sync/income/import
func (h *DataSyncHandler) ImportIncome(w http.ResponseWriter, r *http.Request) {
	h.runImport(w, r, model.DataTypeIncome)
}

func (h *DataSyncHandler) runImport(w http.ResponseWriter, r *http.Request, typ model.DataType) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.Error(w, apierror.BadRequest("invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, apierror.BadRequest("missing file upload part"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read upload"))
		return
	}

	result, err := h.svc.Import(r.Context(), typ, header.Filename, content, principal.UserID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, ImportResponse{
		ID:            result.SyncRecordID,
		Filename:      result.Filename,
		ImportedCount: result.ImportedCount,
	})
}

// List handles GET /data-sync/list?page&page_size&type
func (h *DataSyncHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	var typ *model.DataType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, ok := model.ParseDataType(raw)
		if !ok {
			response.Error(w, apierror.BadRequest("unknown data type"))
			return
		}
		typ = &t
	}

	items, total, err := h.svc.List(r.Context(), principal.UserID, page, pageSize, typ)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Paginated(w, total, page, pageSize, items)
}

// ByHashResponse is the payload of GET /data-sync/by-hash.
type ByHashResponse struct {
	Exists bool                  `json:"exists"`
	Record *model.SyncRecordMeta `json:"record,omitempty"`
}

// ByHash handles GET /data-sync/by-hash?hash
func (h *DataSyncHandler) ByHash(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	hash := r.URL.Query().Get("hash")
	if hash == "" {
		response.Error(w, apierror.BadRequest("hash is required"))
		return
	}

	meta, err := h.svc.ByHash(r.Context(), hash, principal.UserID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, ByHashResponse{Exists: meta != nil, Record: meta})
}

// DeleteResponse is the payload of DELETE /data-sync/object. A missing id is
// not an error; it reports deleted=false.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// Delete handles DELETE /data-sync/object?id
func (h *DataSyncHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(w, apierror.BadRequest("id must be a positive integer"))
		return
	}

	deleted, err := h.svc.Delete(r.Context(), id, principal.UserID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, DeleteResponse{Deleted: deleted})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
