package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

// Webhook fires an outbound trigger request at the job's target URL.
type Webhook struct {
	client *http.Client
}

// NewWebhook returns a Webhook handler.
func NewWebhook() *Webhook {
	return &Webhook{client: &http.Client{}}
}

// Kind this handler serves.
func (w *Webhook) Kind() structs.Kind {
	return structs.KindWebhook
}

type webhookPayload struct {
	JobID   string `json:"job_id"`
	FiredAt int64  `json:"fired_at"`
}

// Execute POSTs the trigger. Any 2xx reply counts as delivered; anything
// else fails the job with the status we got back.
func (w *Webhook) Execute(ctx context.Context, j *structs.Job) (*structs.Result, error) {
	if j.Params.URL == "" {
		return nil, fmt.Errorf("%w webhook job has no url", errors.ErrInvalidParams)
	}

	body, err := json.Marshal(&webhookPayload{JobID: j.ID, FiredAt: time.Now().Unix()})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.Params.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook target unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("webhook target returned %d", resp.StatusCode)
	}

	return &structs.Result{
		Delivered:  true,
		StatusCode: resp.StatusCode,
	}, nil
}
