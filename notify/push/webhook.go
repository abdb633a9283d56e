package push

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/internal/version"
)

// WebhookPusher posts the payload as JSON to the device token, which is
// the destination URL. Used for mobile push bridges and integrations that
// accept an HTTP callback.
type WebhookPusher struct {
	client *http.Client
}

// NewWebhookPusher creates a WebhookPusher. A non-positive timeout
// defaults to 30 seconds.
func NewWebhookPusher(timeout time.Duration) *WebhookPusher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookPusher{client: &http.Client{Timeout: timeout}}
}

func (w *WebhookPusher) Push(ctx context.Context, deviceToken string, _ string, payload *Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deviceToken, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrapf(err, "failed to construct webhook request to %s", deviceToken)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "knot/"+version.String())

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to post webhook to %s", deviceToken)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read webhook response from %s", deviceToken)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("webhook %s returned status %d: %s", deviceToken, resp.StatusCode, b)
	}
	return nil
}
