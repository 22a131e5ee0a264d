package mocks

import (
	"context"
	"sync"
)

// Notification is one recorded call on MockNotifier
type Notification struct {
	Kind      string
	Title     string
	Recipient string
	Actor     string
	Accepted  bool
}

// MockNotifier records every notification instead of sending it
type MockNotifier struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) record(n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, n)
	return m.Err
}

// OfKind returns the recorded notifications of one kind
func (m *MockNotifier) OfKind(kind string) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notification
	for _, n := range m.Sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (m *MockNotifier) SendActivityApprovalEmail(ctx context.Context, title, recipientEmail string, accepted bool) error {
	return m.record(Notification{Kind: "activity_approval", Title: title, Recipient: recipientEmail, Accepted: accepted})
}

func (m *MockNotifier) SendPuzzleAnswered(ctx context.Context, title, ownerEmail, solver string) error {
	return m.record(Notification{Kind: "puzzle_answered", Title: title, Recipient: ownerEmail, Actor: solver, Accepted: true})
}

func (m *MockNotifier) SendChallengeAnswered(ctx context.Context, title, ownerEmail, respondent string) error {
	return m.record(Notification{Kind: "challenge_answered", Title: title, Recipient: ownerEmail, Actor: respondent, Accepted: true})
}

func (m *MockNotifier) SendChallengeAnswerAccepted(ctx context.Context, title, recipientEmail string, accepted bool) error {
	return m.record(Notification{Kind: "challenge_answer_accepted", Title: title, Recipient: recipientEmail, Accepted: accepted})
}

func (m *MockNotifier) SendHappeningApproval(ctx context.Context, title, ownerEmail string, accepted bool) error {
	return m.record(Notification{Kind: "happening_approval", Title: title, Recipient: ownerEmail, Accepted: accepted})
}
