package config

import (
	"github.com/caduceus-vc/caduceus/pkg/framework"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
)

// Provider loads a Config from a file, the default search path when file is
// empty.
type Provider interface {
	Load(file string) Config
}

// Config
type Config interface {
	AMQPAddress() string
	AMQPConfig() (*framework.AMQPConfig, error)

	DataStore() (*framework.DatastoreConfig, error)

	Agent() (*gateway.Config, error)
	API() (*framework.Endpoint, error)
	Regulator() (*framework.RegulatorConfig, error)
	Consent() (*framework.ConsentConfig, error)
	Webhook() (*framework.WebhookConfig, error)
	Notifier() (*framework.NotifierConfig, error)
	LogLevel() string

	GetString(s string) string
	GetInt(s string) int

	Endpoint(s string) (*framework.Endpoint, error)
}
