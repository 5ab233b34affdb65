package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/effectiveacceleration/marketplace/pkg/api/v1/handlers"
)

// Flag names
const (
	flagName   = "name"
	flagBio    = "bio"
	flagAvatar = "avatar"
	flagFeeBps = "fee-bps"
)

// addProfileFlags adds the flags shared by user and arbitrator profiles
func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagName, "n", "", "Display name")
	cmd.Flags().String(flagBio, "", "Short biography")
	cmd.Flags().String(flagAvatar, "", "Content reference of the avatar")
}

func profileFlags(cmd *cobra.Command) (handlers.ProfileParams, error) {
	avatar, err := refFlag(cmd, flagAvatar)
	if err != nil {
		return handlers.ProfileParams{}, err
	}
	name, _ := cmd.Flags().GetString(flagName)
	bio, _ := cmd.Flags().GetString(flagBio)
	return handlers.ProfileParams{Name: name, Bio: bio, Avatar: avatar}, nil
}

func listFlags(cmd *cobra.Command) handlers.ListParams {
	page, _ := cmd.Flags().GetInt(flagPage)
	limit, _ := cmd.Flags().GetInt(flagLimit)
	return handlers.ListParams{Page: page, Limit: limit}
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().IntP(flagPage, "p", 1, "Page number for pagination")
	cmd.Flags().IntP(flagLimit, "l", 0, "Page size")
}

// GetUsersCmd returns the users command
func GetUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	register := &cobra.Command{
		Use:   "register",
		Short: "Register the signing key as a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := profileFlags(cmd)
			if err != nil {
				return err
			}
			user, err := apiClient.RegisterUser(cmd.Context(), handlers.UserRegisterParams{ProfileParams: profile})
			if err != nil {
				return fmt.Errorf("error registering user: %w", err)
			}
			return printOne(cmd, userColumns, user)
		},
	}
	addProfileFlags(register)

	update := &cobra.Command{
		Use:   "update",
		Short: "Update the profile of the signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := profileFlags(cmd)
			if err != nil {
				return err
			}
			user, err := apiClient.UpdateUser(cmd.Context(), handlers.UserUpdateParams{ProfileParams: profile})
			if err != nil {
				return fmt.Errorf("error updating user: %w", err)
			}
			return printOne(cmd, userColumns, user)
		},
	}
	addProfileFlags(update)

	get := &cobra.Command{
		Use:   "get <address>",
		Short: "Get a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := apiClient.GetUser(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error getting user: %w", err)
			}
			return printOne(cmd, userColumns, user)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := apiClient.ListUsers(cmd.Context(), listFlags(cmd))
			if err != nil {
				return fmt.Errorf("error listing users: %w", err)
			}
			return printList(cmd, userColumns, users.Rows)
		},
	}
	addListFlags(list)

	reviews := &cobra.Command{
		Use:   "reviews <address>",
		Short: "List the reviews a user received",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := apiClient.ListReviews(cmd.Context(), handlers.UserReviewsParams{
				Address:    args[0],
				ListParams: listFlags(cmd),
			})
			if err != nil {
				return fmt.Errorf("error listing reviews: %w", err)
			}
			return printList(cmd, reviewColumns, response.Rows)
		},
	}
	addListFlags(reviews)

	cmd.AddCommand(register, update, get, list, reviews)
	return cmd
}

// GetArbitratorsCmd returns the arbitrators command
func GetArbitratorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arbitrators",
		Short: "Manage arbitrators",
	}

	register := &cobra.Command{
		Use:   "register",
		Short: "Register the signing key as an arbitrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := profileFlags(cmd)
			if err != nil {
				return err
			}
			fee, _ := cmd.Flags().GetUint32(flagFeeBps)
			arb, err := apiClient.RegisterArbitrator(cmd.Context(), handlers.ArbitratorRegisterParams{
				FeeBps:        fee,
				ProfileParams: profile,
			})
			if err != nil {
				return fmt.Errorf("error registering arbitrator: %w", err)
			}
			return printOne(cmd, arbitratorColumns, arb)
		},
	}
	addProfileFlags(register)
	register.Flags().Uint32(flagFeeBps, 0, "Arbitration fee in basis points")
	mustMarkRequired(register, flagFeeBps)

	get := &cobra.Command{
		Use:   "get <address>",
		Short: "Get an arbitrator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arb, err := apiClient.GetArbitrator(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error getting arbitrator: %w", err)
			}
			return printOne(cmd, arbitratorColumns, arb)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List arbitrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			arbs, err := apiClient.ListArbitrators(cmd.Context(), listFlags(cmd))
			if err != nil {
				return fmt.Errorf("error listing arbitrators: %w", err)
			}
			return printList(cmd, arbitratorColumns, arbs.Rows)
		},
	}
	addListFlags(list)

	cmd.AddCommand(register, get, list)
	return cmd
}
