package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cahcet/eloquence-api/internal/catalogue"
	"github.com/cahcet/eloquence-api/internal/domain"
)

func TestEventHandler(t *testing.T) {
	store := catalogue.New([]domain.Event{
		{Slug: "chess", Title: "Chess", Type: domain.EventTypeNonTech, RegistrationFee: "₹50 per head", MinMembers: 1, MaxMembers: 1},
		{Slug: "paper-presentation", Title: "Paper Presentation", Type: domain.EventTypeTech, RegistrationFee: "₹100 per head", MinMembers: 1, MaxMembers: 2},
	})
	handler := NewEventHandler(store, "eloquence@upi")

	router := gin.New()
	router.GET("/api/events", handler.HandleListEvents)
	router.GET("/api/events/:id", handler.HandleGetEvent)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Events   []domain.Event `json:"events"`
			PayeeVPA string         `json:"payeeVpa"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Events, 2)
		assert.Equal(t, "eloquence@upi", body.PayeeVPA)
	})

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/chess", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var event domain.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
		assert.Equal(t, "chess", event.Slug)
		assert.Equal(t, 50, event.Fee())
	})

	t.Run("unknown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/ghost-event", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Event 'ghost-event' not found."}`, rec.Body.String())
	})
}
