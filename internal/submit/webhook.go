package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"solarintake/pkg/types"

	"github.com/sirupsen/logrus"
)

// WebhookTransport posts the record as JSON to a fixed URL. Any 2xx answer
// accepts it.
type WebhookTransport struct {
	url        string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

func NewWebhookTransport(url string, httpClient *http.Client, logger logrus.FieldLogger) *WebhookTransport {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &WebhookTransport{url: url, httpClient: httpClient, logger: logger}
}

func (t *WebhookTransport) Name() string { return types.TransportWebhook }

func (t *WebhookTransport) Send(ctx context.Context, record *types.SubmissionRecord) (*types.SubmissionReceipt, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, failed(t.Name(), fmt.Errorf("failed to marshal submission: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, failed(t.Name(), fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Submission-ID", record.ID)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, failed(t.Name(), fmt.Errorf("failed to post submission: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, failed(t.Name(), fmt.Errorf("webhook responded with status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
	}

	t.logger.WithFields(logrus.Fields{
		"submission_id": record.ID,
		"status":        resp.StatusCode,
		"bytes":         len(body),
	}).Info("submission delivered to webhook")

	return &types.SubmissionReceipt{
		SubmissionID: record.ID,
		Transport:    t.Name(),
		Location:     t.url,
		AcceptedAt:   time.Now().UTC(),
	}, nil
}
