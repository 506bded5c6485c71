package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/cahcet/eloquence-api/internal/domain"
)

// amountPattern admits plain decimals with at most two fractional digits.
var amountPattern = regexp2.MustCompile(`^[0-9]+(\.[0-9]{1,2})?\z`, regexp2.None)

var (
	ErrPaymentMissing = errors.New("payment screenshot part is missing")
	ErrFileTooLarge   = errors.New("payment screenshot exceeds the upload limit")
)

// SubmitRegistrationRequest is the multipart body of POST /register.
type SubmitRegistrationRequest struct {
	MainRegistrantData     string                `form:"mainRegistrantData"`
	EventRegistrationsData string                `form:"eventRegistrationsData"`
	TotalAmount            string                `form:"totalAmount"`
	SubmittedAt            string                `form:"submittedAt"`
	PaymentScreenshot      *multipart.FileHeader `form:"paymentScreenshot" swaggerignore:"true"`
}

func (req *SubmitRegistrationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.MainRegistrantData, validation.Required),
		validation.Field(&req.EventRegistrationsData, validation.Required),
		validation.Field(&req.TotalAmount, validation.Required, validation.By(isDecimal)),
		validation.Field(&req.SubmittedAt, validation.Required, validation.By(isRFC3339)),
	)
}

// Decode parses the JSON and scalar parts. The screenshot is read separately
// by ReadPayment so a missing file can be reported on its own.
func (req *SubmitRegistrationRequest) Decode() (domain.Submission, error) {
	var sub domain.Submission

	if err := json.Unmarshal([]byte(req.MainRegistrantData), &sub.Registrant); err != nil {
		return domain.Submission{}, fmt.Errorf("mainRegistrantData: %w", err)
	}
	if err := json.Unmarshal([]byte(req.EventRegistrationsData), &sub.Events); err != nil {
		return domain.Submission{}, fmt.Errorf("eventRegistrationsData: %w", err)
	}

	total, err := parseAmount(req.TotalAmount)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("totalAmount: %w", err)
	}
	sub.TotalAmount = total

	submittedAt, err := time.Parse(time.RFC3339, req.SubmittedAt)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("submittedAt: %w", err)
	}
	sub.SubmittedAt = submittedAt

	return sub, nil
}

// ReadPayment loads the screenshot part into memory, refusing files above maxBytes.
func (req *SubmitRegistrationRequest) ReadPayment(maxBytes int64) (domain.PaymentArtifact, error) {
	fh := req.PaymentScreenshot
	if fh == nil {
		return domain.PaymentArtifact{}, ErrPaymentMissing
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return domain.PaymentArtifact{}, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return domain.PaymentArtifact{}, fmt.Errorf("fh.Open -> %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.PaymentArtifact{}, fmt.Errorf("io.ReadAll -> %w", err)
	}

	return domain.PaymentArtifact{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

var errAmount = errors.New("must be a decimal amount below 100000000")

func parseAmount(s string) (float64, error) {
	if ok, err := amountPattern.MatchString(s); err != nil || !ok {
		return 0, errAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !domain.ValidTotal(v) {
		return 0, errAmount
	}
	return v, nil
}

func isDecimal(value interface{}) error {
	s, _ := value.(string)
	_, err := parseAmount(s)
	return err
}

func isRFC3339(value interface{}) error {
	s, _ := value.(string)
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return errors.New("must be an RFC 3339 timestamp")
	}
	return nil
}
