// Adaptctl is the operator CLI for adaptd. It talks to the daemon's
// HTTP API: submit feedback, trigger a learning cycle, inspect state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverAddr string

func main() {
	root := &cobra.Command{
		Use:          "adaptctl",
		Short:        "Operator CLI for the adaptd learning loop",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&serverAddr, "addr", "http://localhost:8086", "adaptd server address")

	root.AddCommand(newFeedbackCmd())
	root.AddCommand(newCycleCmd())
	root.AddCommand(newStateCmd())
	root.AddCommand(newAdaptationCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
