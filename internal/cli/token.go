package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "watchlist/internal/jwt_token"
)

func (a *app) tokenCommand() *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for calling the API",
		Long: `Sign an HS256 access token with JWT_SIGNING_KEY, JWT_ISSUER and
JWT_AUDIENCE. Intended for development and operator scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
			token, err := svc.GenerateAccessToken(user, ttl)
			if err != nil {
				return err
			}
			if a.format == formatJSON {
				return writeJSON(a.out, map[string]any{
					"access_token": token,
					"token_type":   "Bearer",
					"expires_in":   int(ttl.Seconds()),
				})
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id carried in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
