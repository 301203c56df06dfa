package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func invoiceKeypoints() []Keypoint {
	return []Keypoint{
		{
			Content:         "Invoice #42 due May 1",
			Classification:  Classification{Category: "Finance", Organization: "Acme Corp", Topic: "Invoicing"},
			EmailProviderID: "msg-1",
		},
		{
			Content:         "Meeting moved to 3pm",
			Classification:  Classification{Category: "Finance", Organization: "Acme Corp", Topic: "Invoicing"},
			IsReply:         true,
			Position:        intPtr(1),
			EmailProviderID: "msg-2",
		},
	}
}

func TestBuildTreeRoundTrip(t *testing.T) {
	keypoints := []Keypoint{
		{Content: "a", Classification: Classification{Category: "Finance", Organization: "Acme", Topic: "Invoices"}, EmailProviderID: "m1"},
		{Content: "b", Classification: Classification{Category: "Finance", Organization: "Acme", Topic: "Invoices"}, EmailProviderID: "m2"},
		{Content: "a", Classification: Classification{Category: "Finance", Organization: "Acme", Topic: "Invoices"}, EmailProviderID: "m1"},
		{Content: "c", Classification: Classification{Category: "Travel", Organization: "Airline", Topic: "Bookings"}, EmailProviderID: "m3"},
	}

	tree := BuildTree(keypoints)

	// Flattening recovers every keypoint, grouped by triple, ingestion order
	// and multiplicity preserved.
	got := make(map[Classification][]string)
	tree.Walk(func(category, organization, topic string, node *TopicNode) {
		class := Classification{Category: category, Organization: organization, Topic: topic}
		got[class] = append(got[class], node.Keypoints...)
	})

	want := make(map[Classification][]string)
	for _, kp := range keypoints {
		want[kp.Classification] = append(want[kp.Classification], kp.Content)
	}
	assert.Equal(t, want, got)
}

func TestBuildTreeRecordsContributingEmails(t *testing.T) {
	tree := BuildTree(invoiceKeypoints())

	topic := tree.Categories["Finance"].Organizations["Acme Corp"].Topics["Invoicing"]
	require.NotNil(t, topic)
	assert.Equal(t, []string{"Invoice #42 due May 1", "Meeting moved to 3pm"}, topic.Keypoints)
	assert.Contains(t, topic.Emails, "msg-1")
	assert.Contains(t, topic.Emails, "msg-2")
}

func TestBuildTreeKeepsUnknownSentinel(t *testing.T) {
	tree := BuildTree([]Keypoint{
		{Content: "mystery fact", Classification: Classification{}, EmailProviderID: "m1"},
	})

	// Unclassifiable keypoints are inserted under the literal sentinel, not
	// dropped; relevance filtering is the selector's job.
	require.Contains(t, tree.Categories, Unknown)
	topic := tree.Categories[Unknown].Organizations[Unknown].Topics[Unknown]
	require.NotNil(t, topic)
	assert.Equal(t, []string{"mystery fact"}, topic.Keypoints)
}

func TestEmptyTree(t *testing.T) {
	assert.True(t, BuildTree(nil).Empty())
	assert.False(t, BuildTree(invoiceKeypoints()).Empty())
}

func TestLabels(t *testing.T) {
	tree := BuildTree([]Keypoint{
		{Content: "a", Classification: Classification{Category: "Finance", Organization: "Zeta", Topic: "T"}},
		{Content: "b", Classification: Classification{Category: "Finance", Organization: "Acme", Topic: "T"}},
		{Content: "c", Classification: Classification{Category: "Travel", Organization: "Airline", Topic: "T"}},
	})

	assert.Equal(t, map[string][]string{
		"Finance": {"Acme", "Zeta"},
		"Travel":  {"Airline"},
	}, tree.Labels())
}

func TestProvenance(t *testing.T) {
	tree := BuildTree(append(invoiceKeypoints(), Keypoint{
		Content:         "unrelated",
		Classification:  Classification{Category: "Travel", Organization: "Airline", Topic: "Bookings"},
		EmailProviderID: "msg-9",
	}))

	got := tree.Provenance(Selection{"Finance": {"Acme Corp"}})
	assert.Equal(t, []string{"msg-1", "msg-2"}, got)

	// Branches outside the selection contribute nothing.
	assert.NotContains(t, got, "msg-9")

	// Selections pointing at absent branches are harmless.
	assert.Empty(t, tree.Provenance(Selection{"Nope": {"Acme Corp"}, "Finance": {"Nope"}}))
}

func TestClassificationUnclassified(t *testing.T) {
	assert.True(t, Classification{}.normalized().Unclassified())
	assert.False(t, Classification{Category: "Finance", Organization: "Acme", Topic: "T"}.Unclassified())
	// Partially known classifications are still classified; only the full
	// sentinel triple counts as unclassified.
	assert.False(t, Classification{Category: "Finance", Organization: Unknown, Topic: Unknown}.Unclassified())
}
