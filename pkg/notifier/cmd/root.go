/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/cenkalti/backoff"
	"github.com/spf13/cobra"

	"github.com/caduceus-vc/caduceus/pkg/amqp"
	"github.com/caduceus-vc/caduceus/pkg/amqp/rabbitmq"
	"github.com/caduceus-vc/caduceus/pkg/config"
	"github.com/caduceus-vc/caduceus/pkg/framework"
	"github.com/caduceus-vc/caduceus/pkg/notifier"
	"github.com/caduceus-vc/caduceus/pkg/util"
)

var (
	cfgFile string
	prov    *Provider
)

var rootCmd = &cobra.Command{
	Use:   "caduceus-notifier",
	Short: "The caduceus event notifier.",
	Long: `"The caduceus event notifier.".

 Delivers coordinator events to webhooks and websocket subscribers.`,
}

type Provider struct {
	amqpAddr string
	nc       *framework.NotifierConfig
	hub      *notifier.Hub
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/caduceus/caduceus-notifier.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	vp := &config.ViperConfigProvider{DefaultConfigName: "caduceus-notifier"}
	conf := vp.Load(cfgFile)

	ac, err := conf.AMQPConfig()
	if err != nil {
		log.Fatalln(err)
	}
	if !ac.Configured() {
		log.Fatalln("the notifier requires an amqp section")
	}

	nc, err := conf.Notifier()
	if err != nil {
		log.Fatalln(err)
	}

	prov = &Provider{
		amqpAddr: ac.Endpoint(),
		nc:       nc,
		hub:      notifier.NewHub(),
	}
}

func (r *Provider) GetAMQPListener(queue string) amqp.Listener {
	var l *rabbitmq.Listener
	op := func() error {
		var err error
		l, err = rabbitmq.NewListener(r.amqpAddr, queue)
		return err
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10)
	if err := backoff.RetryNotify(op, bo, util.Logger); err != nil {
		log.Println("unable to listen on", queue, err)
		return nil
	}

	return l
}

func (r *Provider) Webhooks() []notifier.Webhook {
	out := make([]notifier.Webhook, 0, len(r.nc.Webhooks))
	for _, h := range r.nc.Webhooks {
		out = append(out, notifier.Webhook{Topic: h.Topic, URL: h.URL})
	}
	return out
}

func (r *Provider) Hub() *notifier.Hub {
	return r.hub
}
