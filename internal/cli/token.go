package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"go-migration-audit/internal/service"
)

func newTokenCommand(st *state) *cobra.Command {
	var (
		subject string
		role    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the report API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := st.cfg.ValidateToken(); err != nil {
				return err
			}

			tokens, err := service.NewTokenService(st.cfg.JWTSecret, st.cfg.JWTTTL)
			if err != nil {
				return err
			}

			data, err := tokens.Issue(subject, role)
			if err != nil {
				return err
			}

			st.logger.Info("token issued", "subject", subject, "role", role, "expires_in", data.ExpiresIn)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject, usually the operator's login")
	cmd.Flags().StringVar(&role, "role", service.RoleAuditor, "auditor or admin")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
