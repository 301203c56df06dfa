package knowledge

// Aggregated is the sub-tree restricted to the selected branches, keypoint
// strings only. The email bookkeeping stays behind in the tree; provenance is
// reattached after synthesis.
type Aggregated map[string]map[string]map[string][]string

// Aggregate projects the selected branches of the tree into the context
// bundle the synthesizer consumes. Pure filter: it never introduces a
// keypoint the tree does not hold.
func Aggregate(selection Selection, tree *Tree) Aggregated {
	aggregated := make(Aggregated)

	for categoryName, organizations := range selection {
		category, ok := tree.Categories[categoryName]
		if !ok {
			continue
		}
		for _, organizationName := range organizations {
			organization, ok := category.Organizations[organizationName]
			if !ok {
				continue
			}
			for topicName, topic := range organization.Topics {
				if aggregated[categoryName] == nil {
					aggregated[categoryName] = make(map[string]map[string][]string)
				}
				if aggregated[categoryName][organizationName] == nil {
					aggregated[categoryName][organizationName] = make(map[string][]string)
				}
				aggregated[categoryName][organizationName][topicName] = append(
					[]string(nil), topic.Keypoints...,
				)
			}
		}
	}

	return aggregated
}

// Empty reports whether no topic contributed any keypoint. A selected
// organization with only empty topics does not count as data.
func (a Aggregated) Empty() bool {
	for _, organizations := range a {
		for _, topics := range organizations {
			for _, keypoints := range topics {
				if len(keypoints) > 0 {
					return false
				}
			}
		}
	}
	return true
}
