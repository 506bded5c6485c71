package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cahcet/eloquence-api/internal/api/handler/v1/request"
	"github.com/cahcet/eloquence-api/internal/api/handler/v1/response"
	"github.com/cahcet/eloquence-api/internal/domain"
	"github.com/cahcet/eloquence-api/internal/service"
)

type AdminService interface {
	Login(ctx context.Context, password, userAgent string) (string, error)
	Sheet(ctx context.Context, eventSlug string) ([]domain.SheetRow, error)
}

type AdminHandler struct {
	svc AdminService
}

func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{
		svc: svc,
	}
}

// HandleLogin godoc
// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.LoginRequest  true  "request body"
// @Success      200      {object}  response.LoginResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /login [post]
func (h *AdminHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	token, err := h.svc.Login(ctx.Request.Context(), req.Password, ctx.Request.UserAgent())
	if err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			response.RenderErr(ctx, response.ErrWrongCredentials(err))

			return
		}

		err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
	})
}

// HandleGetRegistrations godoc
// @Summary      Registration sheet of one event
// @Description  One row per participant; the main registrant of each team comes first.
// @Tags         admin
// @Produce      json
// @Param        eventName  path      string  true  "event slug"
// @Success      200        {array}   domain.SheetRow
// @Failure      401        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /registrations/{eventName} [get]
// @Security BearerAuth
func (h *AdminHandler) HandleGetRegistrations(ctx *gin.Context) {
	slug := ctx.Param("eventName")

	rows, err := h.svc.Sheet(ctx.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(fmt.Sprintf("Event '%s' not found.", slug), err))
			return
		}

		err = fmt.Errorf("v1.HandleGetRegistrations -> h.svc.Sheet -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, rows)
}
