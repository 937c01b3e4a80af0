package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage applicants",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an applicant",
	Run: func(cmd *cobra.Command, _ []string) {
		userCreate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().String("email", "", "applicant email")
	userCreateCmd.Flags().String("name", "", "applicant name")
	userCreateCmd.MarkFlagRequired("email")
	userCreateCmd.MarkFlagRequired("name")
}

func userCreate(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")

	d := newDeps(config, logger)
	defer d.close()

	st, err := d.openStore(ctx)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}

	id, err := st.CreateUser(ctx, store.User{Email: email, Name: name})
	if err != nil {
		logger.Fatal("creating user", zap.Error(err))
	}
	logger.Info("user created", zap.Int64("user_id", id), zap.String("email", email))
}
