// Command epmon runs the endpoint monitoring platform server and its
// management CLI.
package main

import (
	"os"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/cmd/epmon/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("Error: %v", err)
		os.Exit(1)
	}
}
