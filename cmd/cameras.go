package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cdgriffith/pi-streaming-setup/internal/devices"
	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
)

// CreateCamerasCmd creates the cameras command. It probes every
// /dev/video node and prints the parsed capabilities.
func CreateCamerasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cameras",
		Short: "Show all detected cameras and their formats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			candidates, err := devices.List(cmd.Context(), execute.NewRunner())
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Println("No cameras detected")
				return nil
			}

			for _, candidate := range candidates {
				fmt.Println(candidate.Path)
				formats := make([]string, 0, len(candidate.Formats))
				for format := range candidate.Formats {
					formats = append(formats, format)
				}
				sort.Strings(formats)
				for _, format := range formats {
					fmt.Printf("  %-10s %s\n", format, candidate.Formats[format])
				}
			}
			return nil
		},
	}
}
