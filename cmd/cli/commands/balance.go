package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/effectiveacceleration/marketplace/pkg/api/v1/handlers"
	"github.com/effectiveacceleration/marketplace/pkg/types"
)

const flagOwner = "owner"

// GetBalanceCmd returns the balance command
func GetBalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Manage token balances",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show a balance (the signing key's by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, _ := cmd.Flags().GetString(flagOwner)
			token, _ := cmd.Flags().GetString(flagToken)
			balance, err := apiClient.GetBalance(cmd.Context(), handlers.BalanceParams{Owner: owner, Token: token})
			if err != nil {
				return fmt.Errorf("error getting balance: %w", err)
			}
			return printOne(cmd, balanceColumns, balance)
		},
	}
	get.Flags().String(flagOwner, "", "Balance owner address")
	get.Flags().String(flagToken, "", "Token")
	mustMarkRequired(get, flagToken)

	transfer := func(use, short string, call func(cmd *cobra.Command, params handlers.BalanceTransferParams) (types.BalanceResponse, error)) *cobra.Command {
		c := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				token, _ := cmd.Flags().GetString(flagToken)
				amount, _ := cmd.Flags().GetUint64(flagAmount)
				balance, err := call(cmd, handlers.BalanceTransferParams{Token: token, Amount: amount})
				if err != nil {
					return fmt.Errorf("error running %s: %w", use, err)
				}
				return printOne(cmd, balanceColumns, balance)
			},
		}
		c.Flags().String(flagToken, "", "Token")
		c.Flags().Uint64P(flagAmount, "a", 0, "Amount")
		mustMarkRequired(c, flagToken, flagAmount)
		return c
	}

	cmd.AddCommand(get)
	cmd.AddCommand(transfer("deposit", "Credit the signing key (faucet servers only)", func(cmd *cobra.Command, params handlers.BalanceTransferParams) (types.BalanceResponse, error) {
		return apiClient.Deposit(cmd.Context(), params)
	}))
	cmd.AddCommand(transfer("withdraw", "Withdraw free balance", func(cmd *cobra.Command, params handlers.BalanceTransferParams) (types.BalanceResponse, error) {
		return apiClient.Withdraw(cmd.Context(), params)
	}))
	return cmd
}
