package knowledge

import (
	"sort"

	"github.com/samber/lo"
)

// TopicNode holds the keypoints of one topic in ingestion order, plus the set
// of provider ids of every email that contributed at least one of them. The
// email set is bookkeeping for provenance only; it never influences ranking.
type TopicNode struct {
	Keypoints []string
	Emails    map[string]struct{}
}

type OrganizationNode struct {
	Topics map[string]*TopicNode
}

type CategoryNode struct {
	Organizations map[string]*OrganizationNode
}

// Tree is the ephemeral hierarchical index category -> organization -> topic.
// Built fresh for every query so answers always reflect the latest ingested
// emails; discarded once the response is returned.
type Tree struct {
	Categories map[string]*CategoryNode
}

// BuildTree folds the user's keypoints into the index. Read-only input, no
// network calls; deterministic for a given keypoint slice.
func BuildTree(keypoints []Keypoint) *Tree {
	tree := &Tree{Categories: make(map[string]*CategoryNode)}

	for _, kp := range keypoints {
		class := kp.Classification.normalized()

		category, ok := tree.Categories[class.Category]
		if !ok {
			category = &CategoryNode{Organizations: make(map[string]*OrganizationNode)}
			tree.Categories[class.Category] = category
		}

		organization, ok := category.Organizations[class.Organization]
		if !ok {
			organization = &OrganizationNode{Topics: make(map[string]*TopicNode)}
			category.Organizations[class.Organization] = organization
		}

		topic, ok := organization.Topics[class.Topic]
		if !ok {
			topic = &TopicNode{Emails: make(map[string]struct{})}
			organization.Topics[class.Topic] = topic
		}

		topic.Keypoints = append(topic.Keypoints, kp.Content)
		if kp.EmailProviderID != "" {
			topic.Emails[kp.EmailProviderID] = struct{}{}
		}
	}

	return tree
}

func (t *Tree) Empty() bool {
	return len(t.Categories) == 0
}

// Labels flattens the top two levels into category -> sorted organizations,
// the label set handed to the category selector.
func (t *Tree) Labels() map[string][]string {
	labels := make(map[string][]string, len(t.Categories))
	for name, category := range t.Categories {
		orgs := lo.Keys(category.Organizations)
		sort.Strings(orgs)
		labels[name] = orgs
	}
	return labels
}

// Walk visits every topic node in sorted key order.
func (t *Tree) Walk(visit func(category, organization, topic string, node *TopicNode)) {
	categories := lo.Keys(t.Categories)
	sort.Strings(categories)
	for _, categoryName := range categories {
		category := t.Categories[categoryName]
		organizations := lo.Keys(category.Organizations)
		sort.Strings(organizations)
		for _, organizationName := range organizations {
			organization := category.Organizations[organizationName]
			topics := lo.Keys(organization.Topics)
			sort.Strings(topics)
			for _, topicName := range topics {
				visit(categoryName, organizationName, topicName, organization.Topics[topicName])
			}
		}
	}
}

// Provenance collects the provider ids of every email that contributed a
// keypoint under the selected branches. Second pass of the two-pass design:
// the synthesized answer comes from text-only context, the ids come from the
// tree bookkeeping, so they always match the keypoints the LLM actually saw.
func (t *Tree) Provenance(selection Selection) []string {
	set := make(map[string]struct{})
	for categoryName, organizations := range selection {
		category, ok := t.Categories[categoryName]
		if !ok {
			continue
		}
		for _, organizationName := range organizations {
			organization, ok := category.Organizations[organizationName]
			if !ok {
				continue
			}
			for _, topic := range organization.Topics {
				for providerID := range topic.Emails {
					set[providerID] = struct{}{}
				}
			}
		}
	}

	providerIDs := lo.Keys(set)
	sort.Strings(providerIDs)
	return providerIDs
}
