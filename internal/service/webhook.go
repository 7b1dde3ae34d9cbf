package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/models"
)

const (
	defaultHTTPStatusThreshold = 300
	webhookTimeout             = 10 * time.Second

	EventAPIKeyRotated = "apikey.rotated"
)

type WebhookService struct {
	client     *http.Client
	log        *zap.SugaredLogger
	webhookURL string
	wg         sync.WaitGroup
}

func NewWebhookService(log *zap.SugaredLogger, webhookURL string) *WebhookService {
	return &WebhookService{
		client:     &http.Client{Timeout: webhookTimeout},
		log:        log,
		webhookURL: webhookURL,
	}
}

// NotifyKeyRotated posts the event in the background; delivery failures are only logged.
func (s *WebhookService) NotifyKeyRotated(event models.APIKeyRotatedEvent) {
	if s.webhookURL == "" {
		return
	}
	event.Event = EventAPIKeyRotated

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		payload, err := json.Marshal(event)
		if err != nil {
			s.log.Errorw("failed to marshal webhook payload", "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(payload))
		if err != nil {
			s.log.Errorw("failed to create webhook request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Errorw("failed to send webhook", "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= defaultHTTPStatusThreshold {
			s.log.Warnw("webhook returned non-2xx status", "status", resp.StatusCode)
		}
	}()
}

// Wait blocks until in-flight notifications are done.
func (s *WebhookService) Wait() {
	s.wg.Wait()
}
