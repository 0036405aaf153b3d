package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/generic"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed bearer token for a user",
	Example: `  timesheet token --user alice
  timesheet token --user admin --role admin`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		user := flagString(cmd, "user")
		role := generic.Role(flagString(cmd, "role"))
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", role)
		}

		auth := api.NewAuth(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenExpiry)
		token, expires, err := auth.Issue(generic.UserID(user), role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the database and load a demo scenario",
	Long:  "Reset the database and load a demo scenario: team-week, holiday-week or leave-week.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		scenario := flagString(cmd, "scenario")
		if err := a.handler.LoadScenarioByID(cmd.Context(), scenario); err != nil {
			return err
		}
		log.Info().Str("scenario", scenario).Str("database", cfg.Database.Path).Msg("scenario loaded")
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "user id to sign the token for")
	tokenCmd.Flags().String("role", string(generic.RoleEmployee), "employee, admin or super_admin")
	_ = tokenCmd.MarkFlagRequired("user")

	seedCmd.Flags().String("scenario", "team-week", "scenario to load")

	rootCmd.AddCommand(tokenCmd, seedCmd)
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
