/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package framework

import (
	"fmt"
	"time"
)

type Endpoint struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

func (r Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AMQPConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	VHost    string `mapstructure:"vhost"`
}

func (r *AMQPConfig) Endpoint() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", r.User, r.Password, r.Host, r.Port, r.VHost)
}

// Configured is false when no broker host was given.
func (r *AMQPConfig) Configured() bool {
	return r != nil && r.Host != ""
}

// RegulatorConfig is read by every role. The institution uses DID and Label to
// find the regulator connection, the regulator uses the rest.
type RegulatorConfig struct {
	DID                 string `mapstructure:"did"`
	Label               string `mapstructure:"label"`
	Alias               string `mapstructure:"alias"`
	PermissionCredDefID string `mapstructure:"permissionCredDefID"`
	AutoEndorse         bool   `mapstructure:"autoEndorse"`
	ReviewTime          string `mapstructure:"reviewTime"`
}

type EmergencyConfig struct {
	Attributes []string      `mapstructure:"attributes"`
	Window     time.Duration `mapstructure:"window"`
	Disabled   bool          `mapstructure:"disabled"`
}

type ConsentConfig struct {
	TTL       time.Duration   `mapstructure:"ttl"`
	Emergency EmergencyConfig `mapstructure:"emergency"`
}

type WebhookConfig struct {
	DedupSize int           `mapstructure:"dedupSize"`
	DedupTTL  time.Duration `mapstructure:"dedupTTL"`
}

type HookConfig struct {
	Topic string `mapstructure:"topic"`
	URL   string `mapstructure:"url"`
}

type NotifierConfig struct {
	Webhooks []HookConfig `mapstructure:"webhooks"`
	WS       *Endpoint    `mapstructure:"ws"`
}
