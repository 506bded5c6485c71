package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cahcet/eloquence-api/internal/api/handler/v1/response"
	"github.com/cahcet/eloquence-api/internal/catalogue"
	"github.com/cahcet/eloquence-api/internal/domain"
)

type Catalogue interface {
	Events() []domain.Event
	Get(slug string) (domain.Event, error)
}

type EventHandler struct {
	catalogue Catalogue
	payeeVPA  string
}

func NewEventHandler(catalogue Catalogue, payeeVPA string) *EventHandler {
	return &EventHandler{
		catalogue: catalogue,
		payeeVPA:  payeeVPA,
	}
}

// HandleListEvents godoc
// @Summary      List the event catalogue
// @Tags         events
// @Produce      json
// @Success      200  {object}  response.EventsResponse
// @Router       /events [get]
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.EventsResponse{
		Events:   h.catalogue.Events(),
		PayeeVPA: h.payeeVPA,
	})
}

// HandleGetEvent godoc
// @Summary      Get one event
// @Tags         events
// @Produce      json
// @Param        id   path      string  true  "event slug"
// @Success      200  {object}  domain.Event
// @Failure      404  {object}  response.Err
// @Router       /events/{id} [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	slug := ctx.Param("id")

	event, err := h.catalogue.Get(slug)
	if err != nil {
		if errors.Is(err, catalogue.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(fmt.Sprintf("Event '%s' not found.", slug), err))
			return
		}
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleGetEvent -> h.catalogue.Get -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, event)
}
