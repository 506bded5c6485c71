package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cahcet/eloquence-api/internal/api/handler/v1/request"
	"github.com/cahcet/eloquence-api/internal/api/handler/v1/response"
	"github.com/cahcet/eloquence-api/internal/config"
	"github.com/cahcet/eloquence-api/internal/domain"
	"github.com/cahcet/eloquence-api/internal/service"
)

const (
	msgInvalidRegistration = "Invalid registration data."
	msgPaymentRequired     = "Payment screenshot is required."
	msgInvalidFileType     = "Invalid file type. Please upload an image."
	msgFileTooLarge        = "Payment screenshot is too large."
	msgRulesViolated       = "Registration does not satisfy the event rules."
)

var stepMessages = map[error]string{
	service.ErrUploadFailed:          "Failed to upload payment screenshot.",
	service.ErrSaveRegistration:      "Failed to save main registration data.",
	service.ErrSaveEventRegistration: "Failed to save event registration data.",
	service.ErrSaveTeamMembers:       "Failed to save team member data.",
}

type RegistrationService interface {
	Submit(ctx context.Context, sub domain.Submission) (uuid.UUID, error)
}

type RegistrationHandler struct {
	conf *config.APIConfig
	svc  RegistrationService
}

func NewRegistrationHandler(conf *config.APIConfig, svc RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleSubmitRegistration godoc
// @Summary      Submit a registration
// @Description  Uploads the payment screenshot and stores the registrant, event registrations and team members.
// @Tags         registrations
// @Accept       multipart/form-data
// @Produce      json
// @Param        mainRegistrantData      formData  string  true  "registrant JSON"
// @Param        eventRegistrationsData  formData  string  true  "event registrations JSON array"
// @Param        totalAmount             formData  string  true  "total amount"
// @Param        submittedAt             formData  string  true  "RFC 3339 timestamp"
// @Param        paymentScreenshot       formData  file    true  "payment screenshot"
// @Success      200  {object}  response.SubmitRegistrationResponse
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /register [post]
func (h *RegistrationHandler) HandleSubmitRegistration(ctx *gin.Context) {
	var req request.SubmitRegistrationRequest
	if err := ctx.ShouldBind(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.RenderErr(ctx, response.ErrRequestTooLarge(err))
			return
		}
		response.RenderErr(ctx, response.ErrInvalidInput(msgInvalidRegistration, err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrInvalidInput(msgInvalidRegistration, err))
		return
	}

	sub, err := req.Decode()
	if err != nil {
		response.RenderErr(ctx, response.ErrInvalidInput(msgInvalidRegistration, err))
		return
	}

	sub.Payment, err = req.ReadPayment(h.conf.MaxUploadBytes)
	if err != nil {
		switch {
		case errors.Is(err, request.ErrPaymentMissing):
			response.RenderErr(ctx, response.ErrInvalidInput(msgPaymentRequired, nil))
		case errors.Is(err, request.ErrFileTooLarge):
			response.RenderErr(ctx, response.ErrInvalidInput(msgFileTooLarge, err))
		default:
			response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleSubmitRegistration -> req.ReadPayment -> %w", err)))
		}
		return
	}

	regID, err := h.svc.Submit(ctx.Request.Context(), sub)
	if err != nil {
		response.RenderErr(ctx, submitErr(err))
		return
	}

	ctx.JSON(http.StatusOK, response.SubmitRegistrationResponse{
		Message:        response.RegistrationSubmitted,
		RegistrationID: regID,
	})
}

func submitErr(err error) *response.Err {
	var (
		notFound *service.EventNotFoundError
		invalid  *service.InvalidSubmissionError
		stepErr  *service.StepError
	)

	switch {
	case errors.Is(err, service.ErrPaymentMissing):
		return response.ErrInvalidInput(msgPaymentRequired, nil)
	case errors.Is(err, service.ErrInvalidFileType):
		return response.ErrInvalidInput(msgInvalidFileType, nil)
	case errors.As(err, &notFound):
		return response.ErrNotFound(fmt.Sprintf("Event '%s' not found.", notFound.Slug), err)
	case errors.As(err, &invalid):
		e := response.ErrInvalidInput(msgRulesViolated, err)
		e.Details = strings.Join(invalid.Problems, "; ")
		return e
	case errors.As(err, &stepErr):
		msg, ok := stepMessages[stepErr.Step]
		if !ok {
			break
		}
		return response.ErrStorage(msg, stepErr.Err)
	}

	return response.ErrInternalServerError(fmt.Errorf("v1.HandleSubmitRegistration -> h.svc.Submit -> %w", err))
}
