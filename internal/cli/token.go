package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	jwttoken "idverse/internal/jwt_token"
	"idverse/internal/platform/config"
)

type tokenOutput struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "mint an operator token for issuer-only endpoints",
		Long: "Signs an HS256 operator token with the server's signing key, read from\n" +
			"VCCTL_JWT_SIGNING_KEY or JWT_SIGNING_KEY. Falls back to the development key.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key := v.GetString("jwt_signing_key")
			if key == config.DefaultJWTSigningKey {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: using the development signing key")
			}
			subject := v.GetString("subject")
			role := v.GetString("role")
			ttl := v.GetDuration("ttl")
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}

			svc := jwttoken.NewJWTService(key, jwttoken.DefaultIssuer, jwttoken.DefaultAudience, ttl)
			token, err := svc.GenerateToken(subject, role)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tokenOutput{
				Token:     token,
				Subject:   subject,
				Role:      role,
				ExpiresAt: nowFunc().Add(ttl).UTC().Truncate(time.Second),
			})
		},
	}
	cmd.Flags().String("subject", "operator", "token subject")
	cmd.Flags().String("role", jwttoken.RoleIssuer, "token role")
	cmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	_ = v.BindPFlag("subject", cmd.Flags().Lookup("subject"))
	_ = v.BindPFlag("role", cmd.Flags().Lookup("role"))
	_ = v.BindPFlag("ttl", cmd.Flags().Lookup("ttl"))
	return cmd
}
