package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	errwrap "github.com/trilingua/trilingua/internal/errors"
	"github.com/trilingua/trilingua/internal/server/middleware"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the /api routes",
	Long: `Sign a bearer token with auth.shared_secret. Clients send it as
"Authorization: Bearer <token>" when the server runs with a shared secret.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := appConfig.Auth.SharedSecret
		if secret == "" {
			return errwrap.NewConfigInvalidError("auth.shared_secret (or SHARED_SECRET) is not set")
		}

		subject, _ := cmd.Flags().GetString("subject")
		ttl := appConfig.Auth.TokenTTL
		if cmd.Flags().Changed("ttl") {
			ttl, _ = cmd.Flags().GetDuration("ttl")
		}

		token, err := middleware.IssueToken(secret, subject, ttl, time.Now())
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "failed to sign token")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("subject", "web", "Token subject")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime; 0 never expires (default auth.token_ttl)")
}
