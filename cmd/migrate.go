package cmd

import (
	"context"
	"time"

	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/dao"
	"github.com/Laisky/laisky-blog-rest/library/log"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "migrate",
	Long:  `create the indexes of the blog database`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if gconfig.S.GetBool("dry") {
			log.Logger.Info("dry mode, nothing to migrate")
			return
		}

		db, err := dialMongo(ctx)
		if err != nil {
			log.Logger.Panic("connect mongo", zap.Error(err))
		}
		defer db.Close(context.Background()) // nolint: errcheck

		if err = dao.New(log.Logger, db).EnsureIndexes(ctx); err != nil {
			log.Logger.Panic("migrate", zap.Error(err))
		}

		log.Logger.Info("migrate done")
	},
}

func init() {
	rootCMD.AddCommand(migrateCMD)
}
