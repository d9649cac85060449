package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/caduceus-vc/caduceus/pkg/framework"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
)

const (
	agentKey     = "agent"
	apiKey       = "api"
	regulatorKey = "regulator"
	consentKey   = "consent"
	datastoreKey = "datastore"
	amqpKey      = "amqp"
	notifierKey  = "notifier"
	webhookKey   = "webhook"
	logLevelKey  = "log.level"
)

type ViperConfigProvider struct {
	DefaultConfigName string
}

type vpr struct {
	*viper.Viper
}

func (r *ViperConfigProvider) Load(file string) Config {
	config := &vpr{viper.New()}

	if file != "" {
		config.SetConfigFile(file)
	} else {
		config.SetConfigType("yaml")
		config.AddConfigPath("/etc/caduceus/")
		config.AddConfigPath("./deploy/compose/")
		config.SetConfigName(r.DefaultConfigName)
	}

	config.SetEnvPrefix("CADUCEUS")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	err := config.BindPFlags(pflag.CommandLine)
	if err != nil {
		log.Fatalln("failed to bind flags", err)
	}

	err = config.ReadInConfig()
	if err != nil {
		log.Fatalln("failed to read config", config.ConfigFileUsed(), err)
	}

	return config
}

// unmarshal decodes a section, accepting "30s" style durations and comma
// separated lists.
func (r *vpr) unmarshal(key string, out interface{}) error {
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	return errors.Wrapf(r.UnmarshalKey(key, out, hook), "invalid %s configuration", key)
}

func (r *vpr) AMQPAddress() string {
	amqpUser := r.GetString("amqp.user")
	amqpPwd := r.GetString("amqp.password")
	amqpHost := r.GetString("amqp.host")
	amqpPort := r.GetInt("amqp.port")
	amqpVHost := r.GetString("amqp.vhost")

	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", amqpUser, amqpPwd, amqpHost, amqpPort, amqpVHost)
}

func (r *vpr) AMQPConfig() (*framework.AMQPConfig, error) {
	config := &framework.AMQPConfig{}

	err := r.unmarshal(amqpKey, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (r *vpr) DataStore() (*framework.DatastoreConfig, error) {
	dc := &framework.DatastoreConfig{}

	err := r.unmarshal(datastoreKey, dc)
	if err != nil {
		return nil, err
	}

	return dc, nil
}

func (r *vpr) Agent() (*gateway.Config, error) {
	ac := &gateway.Config{}

	err := r.unmarshal(agentKey, ac)
	if err != nil {
		return nil, err
	}

	if ac.URL == "" && ac.Host == "" {
		return nil, errors.New("agent.url or agent.host is required")
	}

	return ac, nil
}

func (r *vpr) API() (*framework.Endpoint, error) {
	return r.Endpoint(apiKey)
}

func (r *vpr) Regulator() (*framework.RegulatorConfig, error) {
	rc := &framework.RegulatorConfig{}

	err := r.unmarshal(regulatorKey, rc)
	if err != nil {
		return nil, err
	}

	return rc, nil
}

func (r *vpr) Consent() (*framework.ConsentConfig, error) {
	cc := &framework.ConsentConfig{}

	err := r.unmarshal(consentKey, cc)
	if err != nil {
		return nil, err
	}

	return cc, nil
}

func (r *vpr) Webhook() (*framework.WebhookConfig, error) {
	wc := &framework.WebhookConfig{}

	err := r.unmarshal(webhookKey, wc)
	if err != nil {
		return nil, err
	}

	return wc, nil
}

func (r *vpr) Notifier() (*framework.NotifierConfig, error) {
	nc := &framework.NotifierConfig{}

	err := r.unmarshal(notifierKey, nc)
	if err != nil {
		return nil, err
	}

	return nc, nil
}

func (r *vpr) LogLevel() string {
	lvl := r.GetString(logLevelKey)
	if lvl == "" {
		return "INFO"
	}
	return lvl
}

// GetString uses Get because recursion
func (r *vpr) GetString(s string) string {
	ret, _ := r.Get(s).(string)

	return ret
}

// GetInt uses Get because same recursion
func (r *vpr) GetInt(s string) int {
	ret, _ := r.Get(s).(int)

	return ret
}

func (r *vpr) Endpoint(key string) (*framework.Endpoint, error) {
	ep := &framework.Endpoint{}

	err := r.UnmarshalKey(key, ep)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load key "+key)
	}

	return ep, nil
}
