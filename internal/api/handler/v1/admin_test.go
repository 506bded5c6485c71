package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cahcet/eloquence-api/internal/domain"
	"github.com/cahcet/eloquence-api/internal/service"
)

type fakeAdminService struct {
	rows     []domain.SheetRow
	sheetErr error
}

func (f *fakeAdminService) Login(_ context.Context, password, _ string) (string, error) {
	if password != "s3cret" {
		return "", service.ErrWrongPassword
	}
	return "token-123", nil
}

func (f *fakeAdminService) Sheet(_ context.Context, _ string) ([]domain.SheetRow, error) {
	return f.rows, f.sheetErr
}

func newAdminRouter(svc AdminService) *gin.Engine {
	handler := NewAdminHandler(svc)
	router := gin.New()
	router.POST("/api/login", handler.HandleLogin)
	router.GET("/api/registrations/:eventName", handler.HandleGetRegistrations)
	return router
}

func TestAdminHandler_HandleLogin(t *testing.T) {
	router := newAdminRouter(&fakeAdminService{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "ok", body: `{"password":"s3cret"}`, wantStatus: http.StatusOK, wantBody: `{"token":"token-123"}`},
		{name: "wrong password", body: `{"password":"nope"}`, wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Invalid password."}`},
		{name: "empty password", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "not json", body: `password`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestAdminHandler_HandleGetRegistrations(t *testing.T) {
	svc := &fakeAdminService{rows: []domain.SheetRow{
		{SerialNo: 1, TeamNumber: 1, TeamSize: 2, MainRegistrant: "A", MemberName: "A", CollegeName: "C", PhoneNumber: "9000000001", PaymentScreenshot: "https://cdn.example.com/a.png"},
	}}
	router := newAdminRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/registrations/chess", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0]["S.No."])
	assert.Equal(t, "A", rows[0]["Main Registrant Name"])
	assert.Equal(t, "https://cdn.example.com/a.png", rows[0]["Payment Screenshot"])

	svc.sheetErr = &service.EventNotFoundError{Slug: "ghost-event"}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/registrations/ghost-event", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.sheetErr = errors.New("db down")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/registrations/chess", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
