package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cdgriffith/pi-streaming-setup/internal/version"
)

// CreateVersionCmd creates the version command.
func CreateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.String())
		},
	}
}
