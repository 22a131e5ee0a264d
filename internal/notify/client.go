// Package notify provides the webhook client that relays outbound email notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/skillquest/skillquest/internal/config"
	"github.com/skillquest/skillquest/pkg/logger"
)

// Sender is the notification surface the engines depend on.
type Sender interface {
	SendActivityApprovalEmail(ctx context.Context, title, recipientEmail string, accepted bool) error
	SendPuzzleAnswered(ctx context.Context, title, ownerEmail, solver string) error
	SendChallengeAnswered(ctx context.Context, title, ownerEmail, respondent string) error
	SendChallengeAnswerAccepted(ctx context.Context, title, recipientEmail string, accepted bool) error
	SendHappeningApproval(ctx context.Context, title, ownerEmail string, accepted bool) error
}

// Client posts email messages to a mail relay webhook.
type Client struct {
	webhookURL string
	sender     string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new notification client.
func NewClient(cfg *config.NotificationsConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		sender:     cfg.Sender,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Message represents an email relayed through the webhook.
type Message struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// SendMessage posts msg to the relay.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	if !c.enabled {
		c.log.Debug().Str("subject", msg.Subject).Msg("Notifications are disabled, skipping message")
		return nil
	}
	if msg.To == "" {
		c.log.Debug().Str("subject", msg.Subject).Msg("No recipient address, skipping message")
		return nil
	}

	if msg.From == "" {
		msg.From = c.sender
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail relay returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Sent notification")

	return nil
}

func verdict(accepted bool) string {
	if accepted {
		return "approved"
	}
	return "rejected"
}

// SendActivityApprovalEmail tells a proposer whether their activity was approved.
func (c *Client) SendActivityApprovalEmail(ctx context.Context, title, recipientEmail string, accepted bool) error {
	return c.SendMessage(ctx, &Message{
		To:      recipientEmail,
		Subject: fmt.Sprintf("Your activity %q was %s", title, verdict(accepted)),
		Text:    fmt.Sprintf("A moderator has %s your proposed activity %q.", verdict(accepted), title),
	})
}

// SendPuzzleAnswered tells a puzzle owner that someone solved it.
func (c *Client) SendPuzzleAnswered(ctx context.Context, title, ownerEmail, solver string) error {
	return c.SendMessage(ctx, &Message{
		To:      ownerEmail,
		Subject: fmt.Sprintf("Your puzzle %q was solved", title),
		Text:    fmt.Sprintf("%s has answered your puzzle %q correctly.", solver, title),
	})
}

// SendChallengeAnswered tells a challenge owner about a new submission.
func (c *Client) SendChallengeAnswered(ctx context.Context, title, ownerEmail, respondent string) error {
	return c.SendMessage(ctx, &Message{
		To:      ownerEmail,
		Subject: fmt.Sprintf("New answer to your challenge %q", title),
		Text:    fmt.Sprintf("%s has submitted an answer to your challenge %q.", respondent, title),
	})
}

// SendChallengeAnswerAccepted reports the outcome of a challenge answer review.
func (c *Client) SendChallengeAnswerAccepted(ctx context.Context, title, recipientEmail string, accepted bool) error {
	return c.SendMessage(ctx, &Message{
		To:      recipientEmail,
		Subject: fmt.Sprintf("Challenge %q answer %s", title, verdict(accepted)),
		Text:    fmt.Sprintf("The winning answer to the challenge %q was %s.", title, verdict(accepted)),
	})
}

// SendHappeningApproval reports the outcome of a happening completion review.
func (c *Client) SendHappeningApproval(ctx context.Context, title, ownerEmail string, accepted bool) error {
	return c.SendMessage(ctx, &Message{
		To:      ownerEmail,
		Subject: fmt.Sprintf("Your happening %q was %s", title, verdict(accepted)),
		Text:    fmt.Sprintf("The completion of your happening %q was %s.", title, verdict(accepted)),
	})
}
