package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Webhook talks to the chat glue's callback API: user lookups and
// outbound direct messages. Every call is bounded by the client
// timeout so one slow recipient cannot stall a reminder scan.
type Webhook struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewWebhook(baseURL string, timeout time.Duration, logger *zap.Logger) *Webhook {
	return &Webhook{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ResolveUser reports whether the chat platform currently knows the
// user. Lookup failures resolve to false; callers treat that as "skip
// this recipient", not as an error.
func (w *Webhook) ResolveUser(userID int64) bool {
	resp, err := w.client.Get(fmt.Sprintf("%s/users/%d", w.baseURL, userID))
	if err != nil {
		w.logger.Debug("User lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (w *Webhook) SendMessage(userID int64, content string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"user_id": userID,
		"content": content,
	})
	if err != nil {
		return err
	}

	resp, err := w.client.Post(w.baseURL+"/messages", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("message delivery rejected: status %d", resp.StatusCode)
	}
	return nil
}
