// Command oauthfilter runs an HTTP service that authenticates inbound
// requests carrying OAuth 1.0a signatures or OAuth 2.0 bearer tokens and
// publishes the resolved identity to downstream handlers.
//
// Subcommands:
//
//	serve    run the HTTP server
//	migrate  apply PostgreSQL schema migrations
//	sign     print a signed OAuth 1.0a Authorization header
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "oauthfilter",
	Short: "OAuth 1.0a and 2.0 request authentication service",
	Long: `oauthfilter authenticates inbound HTTP requests.

It accepts OAuth 1.0a signed requests (two-legged or token-bearing) and
OAuth 2.0 bearer tokens from the Authorization header, query string or
form body, and publishes the resolved consumer and token to downstream
handlers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML config file (default: $OAUTHFILTER_CONFIG, ./config.yaml, /etc/oauthfilter/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
