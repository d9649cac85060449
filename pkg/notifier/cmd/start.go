/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"
	goji "goji.io"
	"goji.io/pat"

	"github.com/caduceus-vc/caduceus/pkg/notifier"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the event notifier",
	Long:  `Starts the event notifier`,
	Run:   runStart,
}

func runStart(_ *cobra.Command, _ []string) {
	log.Println("starting event notifier")

	srv, err := notifier.New(prov)
	if err != nil {
		log.Fatalln("unable to launch event notifier", err)
	}

	if ws := prov.nc.WS; ws != nil && ws.Port != 0 {
		mux := goji.NewMux()
		mux.Handle(pat.Get("/ws"), prov.Hub())

		go func() {
			log.Printf("websocket events on %s/ws\n", ws.Address())
			if err := http.ListenAndServe(ws.Address(), mux); err != nil {
				log.Println("websocket listener exited with error", err)
			}
		}()
	}

	err = srv.Start()
	if err != nil {
		log.Println("event notifier exited with error", err)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
}
