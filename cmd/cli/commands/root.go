package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/effectiveacceleration/marketplace/internal/constants"
	"github.com/effectiveacceleration/marketplace/pkg/api/v1/client"
	"github.com/effectiveacceleration/marketplace/pkg/api/v1/routes"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

// flag names
const (
	flagServerAddress = "server-address"
	flagPrivateKey    = "private-key"
	flagOutput        = "output"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
	// privateKey is the hex key signing mutating calls
	privateKey string
)

// initClient initializes the API client
func initClient() error {
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress
	if privateKey != "" {
		key, err := signing.ParsePrivateKey(privateKey)
		if err != nil {
			return fmt.Errorf("invalid private key: %w", err)
		}
		opts.PrivateKey = key
	}

	var err error
	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	// PersistentPreRunE handles the env var overrides
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL, "Address of the marketplace API server (env: EACC_SERVER_ADDRESS)")
	RootCmd.PersistentFlags().StringVarP(&privateKey, flagPrivateKey, "k", "", "Hex private key signing requests (env: EACC_PRIVATE_KEY)")
	addOutputFlag(RootCmd)

	RootCmd.AddCommand(GetJobsCmd())
	RootCmd.AddCommand(GetUsersCmd())
	RootCmd.AddCommand(GetArbitratorsCmd())
	RootCmd.AddCommand(GetBalanceCmd())
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "eacc",
	Short: "Marketplace CLI - A command line interface for the job marketplace API",
	Long: `eacc is a command line tool for posting, taking and settling jobs through the marketplace API.
Mutating commands are signed with the key given by --private-key or EACC_PRIVATE_KEY.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Flag > Env Var > Default
		if !cmd.Flags().Changed(flagServerAddress) {
			if envAddr := os.Getenv(constants.EnvServerAddress); envAddr != "" {
				serverAddress = envAddr
			}
		}
		if !cmd.Flags().Changed(flagPrivateKey) {
			if envKey := os.Getenv(constants.EnvPrivateKey); envKey != "" {
				privateKey = envKey
			}
		}

		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		if _, err := parseOutputFormat(outputFormat); err != nil {
			return err
		}
		return initClient()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// parseJobID reads a job id argument
func parseJobID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return uint(id), nil
}
