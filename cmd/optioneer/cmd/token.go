package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"optioneer/fyers"
)

var tokenRedirectURI string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Obtain a Fyers access token interactively",
	Long: `Token walks the Fyers OAuth flow: it prints the login URL, waits
for you to paste the auth_code from the redirect, and exchanges it for
the day's access token. Export the result as FYERS_ACCESS_TOKEN before
running the engine.

Requires FYERS_CLIENT_ID and FYERS_SECRET_KEY in the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID := os.Getenv("FYERS_CLIENT_ID")
		secret := os.Getenv("FYERS_SECRET_KEY")
		if clientID == "" || secret == "" {
			return errors.New("FYERS_CLIENT_ID and FYERS_SECRET_KEY must be set")
		}

		session := fyers.NewSession(clientID, secret, tokenRedirectURI)

		fmt.Println("Open this URL in a browser and log in:")
		fmt.Println()
		fmt.Println("  " + session.LoginURL())
		fmt.Println()
		fmt.Print("Paste the auth_code from the redirect URL: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		code, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read auth code: %w", err)
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return errors.New("empty auth code")
		}

		token, err := session.Exchange(cmd.Context(), code)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println("export FYERS_ACCESS_TOKEN=" + token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRedirectURI, "redirect-uri", "https://trade.fyers.in/api-login/redirect-uri/index.html", "OAuth redirect URI registered with the app")

	rootCmd.AddCommand(tokenCmd)
}
