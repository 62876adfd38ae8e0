package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/cli/output"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/cli/timeutil"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Inspect monitored endpoints",
}

var endpointListOutput string

var endpointListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List monitored endpoints",
	Args:    cobra.NoArgs,
	RunE:    runEndpointList,
}

func init() {
	endpointListCmd.Flags().StringVarP(&endpointListOutput, "output", "o", "table", "Output format (table, json, yaml)")
	endpointCmd.AddCommand(endpointListCmd)
}

func runEndpointList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(endpointListOutput)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	endpoints, err := st.ListEndpoints(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list endpoints: %w", err)
	}

	listing := output.NewListing("HOSTNAME", "DOMAIN", "OS", "AGENT", "LAST SEEN")
	for _, e := range endpoints {
		osLabel := e.OSCaption
		if e.OSVersion != "" {
			osLabel = fmt.Sprintf("%s (%s)", e.OSCaption, e.OSVersion)
		}
		lastSeen := "never"
		if e.LastSeen != nil {
			lastSeen = timeutil.Ago(*e.LastSeen)
		}
		listing.Append(e.Hostname, e.Domain, osLabel, e.AgentVersion, lastSeen)
	}
	return listing.Render(os.Stdout, format)
}
