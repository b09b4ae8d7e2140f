package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ecg-viewer/auth"
	"ecg-viewer/database"
)

func addUserCommand(s *settings) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "adduser [username]",
		Short: "Create a reviewer account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ECGVIEWER_PASSWORD")
			}
			if password == "" {
				return errors.New("password required: use --password or ECGVIEWER_PASSWORD")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			db, err := database.InitDB(s.cfg.Database)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			user, err := database.NewStore(db).CreateUser(cmd.Context(), args[0], hash)
			if err != nil {
				return fmt.Errorf("create user %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password for the new account")
	return cmd
}
