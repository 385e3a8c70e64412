package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "optioneer",
	Short: "An unattended forward-test engine for index option buying",
	Long: `Optioneer runs an unattended forward test of an option-buying
strategy against a live index.

On a fixed cadence it pulls a quote and option-chain snapshot, runs a
multi-factor acceptance gate over the ATM candidate's greeks, premium,
implied volatility and days to expiry, opens a simulated position when
the gate passes, and manages each open position with a ratcheting
stop-loss. All state survives restarts via a JSON snapshot, and every
closed trade lands in an append-only journal.

Credentials are read from FYERS_CLIENT_ID and FYERS_ACCESS_TOKEN
(a .env file in the working directory is also honored).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
