package main

import (
	"fmt"
	"strings"

	"cleancity/config"
	"cleancity/internal/domain/entity"
	"cleancity/internal/infra/auth"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		actorID string
		roles   []string
		raw     bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, r := range roles {
				if !entity.Role(r).IsValid() {
					return fmt.Errorf("unknown role %q", r)
				}
			}

			cfg, err := config.New()
			if err != nil {
				return err
			}

			tokens, err := auth.NewJWTService(cfg)
			if err != nil {
				return err
			}

			token, err := tokens.GenerateAccessToken(actorID, roles)
			if err != nil {
				return err
			}

			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), token)

				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Actor", "Roles", "Expires In", "Token"})
			tw.AppendRow(table.Row{actorID, strings.Join(roles, ","), tokens.GetAccessTokenDuration(), token})
			tw.Render()

			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "actor", "", "actor id (user id, labour id or incharger id)")
	cmd.Flags().StringSliceVar(&roles, "role", []string{entity.RoleLabour.String()}, "roles: user, labour, incharger")
	cmd.Flags().BoolVar(&raw, "raw", false, "print only the token")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}
