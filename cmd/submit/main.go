// Command submit replays a saved registration draft through the wizard and
// posts it to a running API.
//
//	submit -draft draft.json -screenshot pay.png -endpoint https://api.example.com/api/register
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cahcet/eloquence-api/internal/catalogue"
	"github.com/cahcet/eloquence-api/internal/logger"
	"github.com/cahcet/eloquence-api/internal/wizard"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	env := viper.New()
	env.SetDefault("catalogue_path", "./data/site-data.json")
	env.SetDefault("registration_endpoint", "http://localhost:8080/api/register")
	env.SetDefault("upi_payee_vpa", "")
	env.SetDefault("environment", "development")
	env.AutomaticEnv()

	var (
		draftPath      = flag.String("draft", "", "JSON draft of the registration (required)")
		screenshotPath = flag.String("screenshot", "", "payment screenshot to upload (required)")
		cataloguePath  = flag.String("catalogue", env.GetString("catalogue_path"), "event catalogue file")
		endpoint       = flag.String("endpoint", env.GetString("registration_endpoint"), "registration endpoint")
		eventsURL      = flag.String("events", "", "events endpoint publishing the payee VPA (default: derived from -endpoint)")
		payee          = flag.String("payee", env.GetString("upi_payee_vpa"), "UPI payee VPA (default: fetched from -events)")
		timeout        = flag.Duration("timeout", 30*time.Second, "request timeout")
		dryRun         = flag.Bool("dry-run", false, "validate and print the payment details without submitting")
	)
	flag.Parse()

	if *draftPath == "" || *screenshotPath == "" {
		flag.Usage()
		return errors.New("-draft and -screenshot are required")
	}

	if err := logger.Init(env.GetString("environment")); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	events, err := catalogue.Open(*cataloguePath)
	if err != nil {
		return fmt.Errorf("failed to load event catalogue -> %w", err)
	}

	draft, err := readDraft(*draftPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	client := wizard.NewClient(*endpoint, &http.Client{})

	vpa, err := resolvePayee(ctx, client, *payee, *eventsURL, *endpoint)
	if err != nil {
		return err
	}

	form := wizard.NewForm(events, vpa)
	warnings, err := wizard.Replay(form, draft)
	for _, w := range warnings {
		fmt.Println(w)
	}
	if err != nil {
		return err
	}

	payment, err := readScreenshot(*screenshotPath)
	if err != nil {
		return err
	}
	form.SetPaymentFile(payment)

	fmt.Printf("Total: ₹%d\n", form.Total())
	fmt.Printf("Pay to: %s\n", form.UPIURI())
	if *dryRun {
		if msgs := form.Validate(wizard.StepPayConfirm); len(msgs) > 0 {
			return &wizard.ValidationError{Messages: msgs}
		}
		return nil
	}

	result, err := form.Submit(ctx, client)
	if err != nil {
		var serr *wizard.SubmitError
		if errors.As(err, &serr) && serr.Details != "" {
			zap.L().Debug("registration rejected", zap.Int("status", serr.StatusCode), zap.String("details", serr.Details))
		}
		return err
	}

	fmt.Println(result.Message)
	fmt.Printf("Registration ID: %s\n", result.RegistrationID)

	return nil
}

// resolvePayee prefers -payee or UPI_PAYEE_VPA and otherwise asks the API.
func resolvePayee(ctx context.Context, client *wizard.Client, payee, eventsURL, endpoint string) (string, error) {
	if payee != "" {
		return payee, nil
	}
	if eventsURL == "" {
		eventsURL = wizard.EventsEndpoint(endpoint)
	}
	if eventsURL == "" {
		return "", errors.New("no payee VPA: set -payee, UPI_PAYEE_VPA or -events")
	}

	vpa, err := client.Payee(ctx, eventsURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch payee VPA -> %w", err)
	}
	zap.L().Debug("payee resolved from API", zap.String("events_url", eventsURL))

	return vpa, nil
}

func readDraft(path string) (wizard.Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return wizard.Draft{}, fmt.Errorf("os.Open -> %w", err)
	}
	defer f.Close()

	return wizard.DecodeDraft(f)
}

func readScreenshot(path string) (*wizard.PaymentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile -> %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &wizard.PaymentFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
