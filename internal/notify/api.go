package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bcgov/pay-reconciler/internal/logging"

	"golang.org/x/oauth2/clientcredentials"
)

// APIConfig configures the notify API client.
type APIConfig struct {
	Endpoint     string
	Recipients   []string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// APINotifier posts alerts to the notify API, one request per recipient.
type APINotifier struct {
	cfg    APIConfig
	client *http.Client
	logger logging.Logger
}

// NewAPINotifier creates an APINotifier. When a token URL is configured the
// client authenticates with OAuth2 client credentials.
func NewAPINotifier(ctx context.Context, cfg APIConfig, logger logging.Logger) *APINotifier {
	client := http.DefaultClient
	if cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		client = cc.Client(ctx)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client = &http.Client{Transport: client.Transport, Timeout: timeout}

	return &APINotifier{cfg: cfg, client: client, logger: logger}
}

type notifyRequest struct {
	Recipients string        `json:"recipients"`
	Content    notifyContent `json:"content"`
}

type notifyContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type notifyResponse struct {
	NotifyStatus string `json:"notifyStatus"`
}

// SendErrorEmail renders and sends the alert. It succeeds when at least one
// recipient accepted it.
func (n *APINotifier) SendErrorEmail(ctx context.Context, params EmailParams) error {
	if len(n.cfg.Recipients) == 0 {
		n.logger.Info("No recipients found to send email", logging.F(logging.FieldFileName, params.FileName))
		return nil
	}

	body, err := RenderBody(params)
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(n.cfg.Endpoint, "/") + "/notify/"

	sent := false
	var lastErr error
	for _, recipient := range n.cfg.Recipients {
		if err := n.post(ctx, url, notifyRequest{
			Recipients: recipient,
			Content:    notifyContent{Subject: params.Subject, Body: body},
		}); err != nil {
			lastErr = err
			n.logger.WithError(err).Error("Error sending email", logging.F("recipient", recipient))
			continue
		}
		sent = true
		n.logger.Info("Successfully sent email", logging.F("recipient", recipient))
	}

	if !sent {
		return fmt.Errorf("%w: %v", ErrSendFailed, lastErr)
	}
	return nil
}

func (n *APINotifier) post(ctx context.Context, url string, payload notifyRequest) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read notify response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notify api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out notifyResponse
	if len(raw) > 0 && json.Unmarshal(raw, &out) == nil && out.NotifyStatus == "FAILURE" {
		return fmt.Errorf("notify api reported FAILURE")
	}
	return nil
}
