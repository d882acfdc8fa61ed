package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	httpserver "github.com/dkp-kub/bantuan-kub/internal/interfaces/http"
)

// newTokenCmd mints a bearer token for local testing against the API
func newTokenCmd() *cobra.Command {
	var (
		userID int64
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user id and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			tok, err := httpserver.IssueToken([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, entity.Actor{
				UserID: userID,
				Role:   entity.Role(role),
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "user id carried by the token")
	cmd.Flags().StringVar(&role, "role", string(entity.RoleUser), "one of user, admin_kabkota, kepala_bidang, kepala_dinas")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}
