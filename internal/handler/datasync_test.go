package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"imvu-insight-api/internal/blob"
	"imvu-insight-api/internal/middleware"
	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/repository"
	"imvu-insight-api/internal/service"
)

func newTestDataSyncHandler(t *testing.T) *DataSyncHandler {
	t.Helper()
	store, err := repository.NewStore("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)

	svc := service.NewDataSyncService(store, blobs, nil, time.Hour, zap.NewNop())
	return NewDataSyncHandler(svc)
}

func withPrincipal(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.PrincipalKey, &model.Principal{UserID: 1, UserName: "vinz"})
	return r.WithContext(ctx)
}

func multipartFile(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestImportProductUpload(t *testing.T) {
	h := newTestDataSyncHandler(t)

	xml := []byte(`<product_list developer_id="500">
		<product_list_entry product_id="77" product_name="Hat" price="3.50" profit="0" visible="1"
			old_sales="0" new_sales="0" total_sales="0" derived_product_sales="0"
			direct_sales="0" indirect_sales="0" promoted_sales="0"
			cart_adds="0" wishlist_adds="0" organic_impressions="0" paid_impressions="0"/>
	</product_list>`)
	body, contentType := multipartFile(t, "file", "catalog.xml", xml)

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/data-sync/product/import", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ImportProduct(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Success bool           `json:"success"`
		Data    ImportResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "catalog.xml", envelope.Data.Filename)
	assert.Equal(t, 1, envelope.Data.ImportedCount)
	assert.NotZero(t, envelope.Data.ID)
}

func TestImportMissingFilePart(t *testing.T) {
	h := newTestDataSyncHandler(t)

	body, contentType := multipartFile(t, "wrong_field", "catalog.xml", []byte("<product_list/>"))
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/data-sync/product/import", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ImportProduct(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUnknownRecord(t *testing.T) {
	h := newTestDataSyncHandler(t)

	req := withPrincipal(httptest.NewRequest(http.MethodDelete, "/data-sync/object?id=12345", nil))
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data DeleteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Deleted)
}
