// Command crmops runs the Adrata CRM operations service and its
// batch maintenance pipelines.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	root := &cobra.Command{
		Use:     "crmops",
		Short:   "Buyer-group scoring and data hygiene for the Adrata CRM",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newRescoreCmd(),
		newAuditCmd(),
		newEnrichCmd(),
		newSeedCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
