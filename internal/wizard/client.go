package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/cahcet/eloquence-api/internal/domain"
)

// ErrNetwork is reported when the request never produced a response.
const ErrNetwork Alert = "Network error. Please check your connection and try again."

const submittedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// SubmitError is a non-2xx answer from the registration endpoint.
type SubmitError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *SubmitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Registration failed (HTTP %d).", e.StatusCode)
	}
	return e.Message
}

// Client posts submissions to POST /api/register.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

func (c *Client) Submit(ctx context.Context, sub domain.Submission) (SubmitResult, error) {
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encodeSubmission -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w (%v)", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w (%v)", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		_ = json.Unmarshal(raw, &failure)
		return SubmitResult{}, &SubmitError{StatusCode: resp.StatusCode, Message: failure.Error, Details: failure.Details}
	}

	var result SubmitResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return SubmitResult{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return result, nil
}

// ErrNoPayee is returned when the events endpoint does not publish a UPI address.
var ErrNoPayee = errors.New("events endpoint did not return a payee VPA")

// EventsEndpoint derives GET /api/events from the registration endpoint.
// It returns "" when the endpoint does not end in /register.
func EventsEndpoint(registerEndpoint string) string {
	base, ok := strings.CutSuffix(strings.TrimRight(registerEndpoint, "/"), "/register")
	if !ok {
		return ""
	}
	return base + "/events"
}

// Payee reads the payeeVpa the API publishes alongside the catalogue.
func (c *Client) Payee(ctx context.Context, eventsURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eventsURL, nil)
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w (%v)", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: unexpected status %d", eventsURL, resp.StatusCode)
	}

	var body struct {
		PayeeVPA string `json:"payeeVpa"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("json.Decode -> %w", err)
	}
	if strings.TrimSpace(body.PayeeVPA) == "" {
		return "", ErrNoPayee
	}

	return body.PayeeVPA, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeSubmission(sub domain.Submission) (*bytes.Buffer, string, error) {
	registrant, err := json.Marshal(sub.Registrant)
	if err != nil {
		return nil, "", err
	}
	events := sub.Events
	if events == nil {
		events = []domain.SubmittedEvent{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return nil, "", err
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := []struct{ name, value string }{
		{domain.PartMainRegistrant, string(registrant)},
		{domain.PartEventRegistrations, string(eventsJSON)},
		{domain.PartTotalAmount, strconv.FormatFloat(sub.TotalAmount, 'f', 2, 64)},
		{domain.PartSubmittedAt, sub.SubmittedAt.UTC().Format(submittedAtLayout)},
	}
	for _, field := range fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}

	contentType := sub.Payment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		domain.PartPaymentScreenshot, quoteEscaper.Replace(sub.Payment.FileName)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(sub.Payment.Data); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return body, w.FormDataContentType(), nil
}
