package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/radiomoe/pkg/listenmoe"
)

// stationsCmd represents the stations command
var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List known stations and their endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range listenmoe.Stations {
			fmt.Printf("%s\n  stream:  %s\n  gateway: %s\n", s, s.StreamURL(), s.GatewayURL())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stationsCmd)
}
