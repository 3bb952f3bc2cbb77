package analytics

// TopicLinkClicked carries clicks from the redirect server to the consumer.
const TopicLinkClicked = "link.clicked"

// ClickedEvent is a redirect that still has to be recorded.
type ClickedEvent struct {
	Alias string `json:"alias"`
	Visit Visit  `json:"visit"`
}
