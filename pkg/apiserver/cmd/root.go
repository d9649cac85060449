/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"fmt"
	"os"

	arieslog "github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/spf13/cobra"

	"github.com/caduceus-vc/caduceus/pkg/config"
)

var (
	cfgFile string
	conf    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "caduceus",
	Short: "The caduceus credential exchange coordinator.",
	Long: `"The caduceus credential exchange coordinator.".

 Runs the institution, holder or regulator controller in front of an ACA-Py agent.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/caduceus/caduceus-config.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	vp := &config.ViperConfigProvider{DefaultConfigName: "caduceus-config"}
	conf = vp.Load(cfgFile)

	lvl, err := arieslog.ParseLevel(conf.LogLevel())
	if err != nil {
		fmt.Println("ignoring log.level:", err)
		return
	}
	arieslog.SetLevel("", lvl)
}
