// Package ingest receives summarized-email events and persists their
// keypoints. It replaces fire-and-forget ingestion threads with an explicit
// subscription whose failures are logged, not swallowed.
package ingest

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/aomail-ai/knowledge/pkg/helpers"
	"github.com/aomail-ai/knowledge/pkg/knowledge"
)

const SubjectEmailSummarized = "email.summarized"

// SummarizedEmail is the payload the upstream summarizer publishes once it
// has extracted keypoints from an email.
type SummarizedEmail struct {
	EventID      string            `json:"event_id"`
	UserID       string            `json:"user_id"`
	ProviderID   string            `json:"provider_id"`
	Subject      string            `json:"subject"`
	Category     string            `json:"category"`
	Organization string            `json:"organization"`
	Topic        string            `json:"topic"`
	Keypoints    []SummaryKeypoint `json:"keypoints"`
}

type SummaryKeypoint struct {
	Content  string `json:"content"`
	IsReply  bool   `json:"is_reply"`
	Position *int   `json:"position"`
}

type Store interface {
	SaveEmailKeypoints(ctx context.Context, userID, providerID, subject string, keypoints []knowledge.Keypoint) error
}

type Subscriber struct {
	nc     *nats.Conn
	store  Store
	logger *log.Logger
}

func NewSubscriber(nc *nats.Conn, store Store, logger *log.Logger) *Subscriber {
	return &Subscriber{
		nc:     nc,
		store:  store,
		logger: logger,
	}
}

func (s *Subscriber) Start(ctx context.Context) (*nats.Subscription, error) {
	sub, err := s.nc.Subscribe(SubjectEmailSummarized, func(msg *nats.Msg) {
		if err := s.handleMessage(ctx, msg.Data); err != nil {
			s.logger.Error("Failed to ingest summarized email", "error", err)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to summarized emails")
	}
	s.logger.Info("Listening for summarized emails", "subject", SubjectEmailSummarized)
	return sub, nil
}

func (s *Subscriber) handleMessage(ctx context.Context, data []byte) error {
	var event SummarizedEmail
	if err := json.Unmarshal(data, &event); err != nil {
		return errors.Wrap(err, "malformed summarized email event")
	}
	if event.UserID == "" || event.ProviderID == "" {
		return errors.New("summarized email event missing user_id or provider_id")
	}

	keypoints := make([]knowledge.Keypoint, 0, len(event.Keypoints))
	for _, kp := range event.Keypoints {
		keypoints = append(keypoints, knowledge.Keypoint{
			Content: kp.Content,
			Classification: knowledge.Classification{
				Category:     event.Category,
				Organization: event.Organization,
				Topic:        event.Topic,
			},
			IsReply:         kp.IsReply,
			Position:        kp.Position,
			EmailProviderID: event.ProviderID,
		})
	}

	if err := s.store.SaveEmailKeypoints(ctx, event.UserID, event.ProviderID, event.Subject, keypoints); err != nil {
		return err
	}

	s.logger.Debug("Ingested summarized email",
		"event_id", event.EventID,
		"provider_id", event.ProviderID,
		"keypoints", len(keypoints),
	)
	return nil
}

// PublishSummarizedEmail is the producer-side helper; it stamps an event id
// when the caller did not.
func PublishSummarizedEmail(nc *nats.Conn, event SummarizedEmail) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	return helpers.NatsPublish(nc, SubjectEmailSummarized, event)
}
