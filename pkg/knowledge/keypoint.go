package knowledge

// Unknown is the sentinel the summarizer stores when it could not confidently
// classify an email. It is a real tree key, never silently dropped.
const Unknown = "Unknown"

// Classification places a keypoint in the user taxonomy. Callers should check
// Unclassified instead of comparing fields against the sentinel themselves.
type Classification struct {
	Category     string
	Organization string
	Topic        string
}

func (c Classification) Unclassified() bool {
	return c.Category == Unknown && c.Organization == Unknown && c.Topic == Unknown
}

// normalized maps empty fields to the sentinel so the tree never grows
// empty-string keys.
func (c Classification) normalized() Classification {
	if c.Category == "" {
		c.Category = Unknown
	}
	if c.Organization == "" {
		c.Organization = Unknown
	}
	if c.Topic == "" {
		c.Topic = Unknown
	}
	return c
}

// Keypoint is one extracted fact from one email. Immutable once ingested;
// deleted only by cascade when its email is deleted.
type Keypoint struct {
	Content         string
	Classification  Classification
	IsReply         bool
	Position        *int
	EmailProviderID string
}
