package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/pitch-edge/internal/config"
)

// WebhookPublisher POSTs alerts to a configured endpoint with retries
// and a client-side rate cap so a burst of decisions cannot hammer the
// receiver.
type WebhookPublisher struct {
	url     string
	client  *retryablehttp.Client
	limiter *rate.Limiter
	log     *logrus.Logger
}

// NewWebhookPublisher builds a publisher from the notify configuration
func NewWebhookPublisher(cfg config.NotifyConfig, log *logrus.Logger) *WebhookPublisher {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	client.Logger = log

	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}

	return &WebhookPublisher{
		url:     cfg.WebhookURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}
}

// Publish implements Publisher
func (p *WebhookPublisher) Publish(ctx context.Context, alert BetAlert) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("alert rate limiter: %w", err)
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.url, body)
	if err != nil {
		return fmt.Errorf("building alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting alert: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("alert endpoint returned %d", resp.StatusCode)
	}

	p.log.WithFields(logrus.Fields{
		"match_id": alert.MatchID,
		"market":   alert.Market,
		"stake":    alert.StakePct,
	}).Info("Bet alert published")
	return nil
}
