package notifier

const QueueName = "notification"

// Event topics published by the coordinator.
const (
	TopicPermissions = "permissions"
	TopicCredentials = "credentials"
	TopicProofs      = "proofs"
	TopicConnections = "connections"
	TopicRegistry    = "registry"
	TopicConsent     = "consent"
	TopicAllWildcard = "*"
)

type Notification struct {
	Topic     string      `json:"topic"`
	Event     string      `json:"event"`
	EventData interface{} `json:"message"`
}

type EventMessage struct {
	Topic     string      `json:"topic,omitempty"`
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	EventData interface{} `json:"message"`
}

// Webhook is a subscriber URL for a topic, "*" matches every topic.
type Webhook struct {
	Topic string `mapstructure:"topic" json:"topic"`
	URL   string `mapstructure:"url" json:"url"`
}

func (r Webhook) Matches(topic string) bool {
	return r.Topic == TopicAllWildcard || r.Topic == topic
}
