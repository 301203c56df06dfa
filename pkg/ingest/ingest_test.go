package ingest

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aomail-ai/knowledge/pkg/knowledge"
)

type fakeStore struct {
	userID     string
	providerID string
	subject    string
	keypoints  []knowledge.Keypoint
	calls      int
}

func (f *fakeStore) SaveEmailKeypoints(ctx context.Context, userID, providerID, subject string, keypoints []knowledge.Keypoint) error {
	f.userID = userID
	f.providerID = providerID
	f.subject = subject
	f.keypoints = keypoints
	f.calls++
	return nil
}

func newTestSubscriber(store Store) *Subscriber {
	return NewSubscriber(nil, store, log.New(io.Discard))
}

func TestHandleMessagePersistsKeypoints(t *testing.T) {
	store := &fakeStore{}
	sub := newTestSubscriber(store)

	position := 1
	payload, err := json.Marshal(SummarizedEmail{
		EventID:      "evt-1",
		UserID:       "user-1",
		ProviderID:   "msg-1",
		Subject:      "Invoice #42",
		Category:     "Finance",
		Organization: "Acme Corp",
		Topic:        "Invoicing",
		Keypoints: []SummaryKeypoint{
			{Content: "Invoice #42 due May 1"},
			{Content: "Meeting moved to 3pm", IsReply: true, Position: &position},
		},
	})
	require.NoError(t, err)

	require.NoError(t, sub.handleMessage(context.Background(), payload))

	assert.Equal(t, "user-1", store.userID)
	assert.Equal(t, "msg-1", store.providerID)
	assert.Equal(t, "Invoice #42", store.subject)
	require.Len(t, store.keypoints, 2)

	first := store.keypoints[0]
	assert.Equal(t, "Invoice #42 due May 1", first.Content)
	assert.Equal(t, "Finance", first.Classification.Category)
	assert.Equal(t, "Acme Corp", first.Classification.Organization)
	assert.Equal(t, "Invoicing", first.Classification.Topic)
	assert.Equal(t, "msg-1", first.EmailProviderID)

	second := store.keypoints[1]
	assert.True(t, second.IsReply)
	require.NotNil(t, second.Position)
	assert.Equal(t, 1, *second.Position)
}

func TestHandleMessageRejectsMalformedPayload(t *testing.T) {
	store := &fakeStore{}
	sub := newTestSubscriber(store)

	err := sub.handleMessage(context.Background(), []byte("not json"))
	require.Error(t, err)
	assert.Zero(t, store.calls)
}

func TestHandleMessageRequiresIdentifiers(t *testing.T) {
	store := &fakeStore{}
	sub := newTestSubscriber(store)

	payload, err := json.Marshal(SummarizedEmail{Subject: "orphan"})
	require.NoError(t, err)

	err = sub.handleMessage(context.Background(), payload)
	require.Error(t, err)
	assert.Zero(t, store.calls)
}
