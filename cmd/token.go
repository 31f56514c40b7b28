package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-blog-search/library/log"
)

var tokenCMD = &cobra.Command{
	Use:   "token <account>",
	Short: "sign a jwt for an author",
	Long: `load or create the user by account and print a signed bearer token
that can be used to create posts.`,
	Args: cobra.ExactArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		defer closeStore(ctx)

		username, err := cmd.Flags().GetString("username")
		if err != nil {
			log.Logger.Panic("get username", zap.Error(err))
		}

		token, err := signToken(ctx, args[0], username)
		if err != nil {
			log.Logger.Panic("sign token", zap.Error(err))
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
	},
}

func signToken(ctx context.Context, account, username string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", errors.New("account is empty")
	}
	if username = strings.TrimSpace(username); username == "" {
		username = account
	}

	user, err := app.store.EnsureUser(ctx, account, username)
	if err != nil {
		return "", errors.Wrapf(err, "ensure user %q", account)
	}

	token, err := app.tokens.Sign(user.ID, user.Username)
	if err != nil {
		return "", errors.Wrapf(err, "sign for user %d", user.ID)
	}

	log.Logger.Info("signed token", zap.Uint("user_id", user.ID), zap.String("account", account))
	return token, nil
}

func init() {
	rootCMD.AddCommand(tokenCMD)
	tokenCMD.Flags().String("username", "", "username of a new user, defaults to account")
}
