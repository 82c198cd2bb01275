package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"example.com/carbon/internal/auth"
	"example.com/carbon/internal/config"
)

// NewTokenCmd creates the token command, which signs a bearer token with
// JWT_SECRET for local use against the API.
func NewTokenCmd(cfg config.Config) *cobra.Command {
	var (
		subject string
		tenant  string
		scopes  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Example: `  carbonctl token --subject user-1 --tenant acme
  carbonctl token --subject ops --tenant acme --scope emissions:admin --ttl 15m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ttl <= 0 {
				return errors.New("ttl must be positive")
			}
			token, err := auth.Issue(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, subject, tenant, scopes, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "user id placed in the sub claim")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{auth.ScopeEmissionsRead, auth.ScopeEmissionsWrite}, "scopes to grant (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}
