package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateProjectsSelectedBranches(t *testing.T) {
	tree := BuildTree(append(invoiceKeypoints(), Keypoint{
		Content:         "Flight booked for June",
		Classification:  Classification{Category: "Travel", Organization: "Airline", Topic: "Bookings"},
		EmailProviderID: "msg-9",
	}))

	aggregated := Aggregate(Selection{"Finance": {"Acme Corp"}}, tree)

	assert.Equal(t, Aggregated{
		"Finance": {
			"Acme Corp": {
				"Invoicing": {"Invoice #42 due May 1", "Meeting moved to 3pm"},
			},
		},
	}, aggregated)
}

func TestAggregatePurity(t *testing.T) {
	tree := BuildTree(invoiceKeypoints())
	aggregated := Aggregate(Selection{"Finance": {"Acme Corp"}}, tree)

	// Every aggregated keypoint exists in the tree, and every keypoint of
	// every selected branch is present.
	inTree := make(map[string]int)
	tree.Walk(func(_, _, _ string, node *TopicNode) {
		for _, kp := range node.Keypoints {
			inTree[kp]++
		}
	})
	count := 0
	for _, organizations := range aggregated {
		for _, topics := range organizations {
			for _, keypoints := range topics {
				for _, kp := range keypoints {
					require.Contains(t, inTree, kp)
					count++
				}
			}
		}
	}
	assert.Equal(t, len(invoiceKeypoints()), count)
}

func TestAggregateIgnoresAbsentBranches(t *testing.T) {
	tree := BuildTree(invoiceKeypoints())

	aggregated := Aggregate(Selection{"Finance": {"Nonexistent"}, "Nope": {"Acme Corp"}}, tree)
	assert.True(t, aggregated.Empty())
}

func TestAggregatedEmpty(t *testing.T) {
	assert.True(t, Aggregated{}.Empty())
	assert.True(t, Aggregated{"Finance": {"Acme": {"Invoicing": {}}}}.Empty())
	assert.False(t, Aggregated{"Finance": {"Acme": {"Invoicing": {"fact"}}}}.Empty())
}

func TestAggregateDoesNotAliasTree(t *testing.T) {
	tree := BuildTree(invoiceKeypoints())
	aggregated := Aggregate(Selection{"Finance": {"Acme Corp"}}, tree)

	aggregated["Finance"]["Acme Corp"]["Invoicing"][0] = "tampered"
	topic := tree.Categories["Finance"].Organizations["Acme Corp"].Topics["Invoicing"]
	assert.Equal(t, "Invoice #42 due May 1", topic.Keypoints[0])
}
