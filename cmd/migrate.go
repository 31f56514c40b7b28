package cmd

import (
	"context"

	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-blog-search/library/log"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "migrate",
	Long:  `create tables or indexes of the blog store`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		defer closeStore(ctx)

		if err := app.store.Migrate(ctx); err != nil {
			log.Logger.Panic("migrate", zap.Error(err))
		}

		log.Logger.Info("migrated")
	},
}

func init() {
	rootCMD.AddCommand(migrateCMD)
}
