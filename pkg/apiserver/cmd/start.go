package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/caduceus-vc/caduceus/pkg/apiserver"
	"github.com/caduceus-vc/caduceus/pkg/controller"
)

func roleCommand(role apiserver.Role, short string) *cobra.Command {
	parent := &cobra.Command{
		Use:   string(role),
		Short: short,
	}

	parent.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Starts the " + string(role) + " controller",
		Run: func(_ *cobra.Command, _ []string) {
			runStart(role)
		},
	})

	return parent
}

func runStart(role apiserver.Role) {
	prov, err := NewProvider(conf, role)
	if err != nil {
		log.Fatalln("error initializing", role, err)
	}
	defer prov.Close()

	srv, err := apiserver.New(prov)
	if err != nil {
		log.Fatalln("error initializing caduceus apiserver", err)
	}

	runner, err := controller.New(prov, srv)
	if err != nil {
		log.Fatalln("unable to start caduceus apiserver", err)
	}

	err = runner.Launch()
	if err != nil {
		log.Println("launch errored with", err)
	}

	log.Println("Shutdown")
}

func init() {
	rootCmd.AddCommand(
		roleCommand(apiserver.Institution, "Hospital, clinic or lab issuing and verifying credentials"),
		roleCommand(apiserver.Holder, "Patient wallet controller with consent"),
		roleCommand(apiserver.Regulator, "Regulator registry and permission review"),
	)
}
