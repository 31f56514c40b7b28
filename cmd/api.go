package cmd

import (
	"context"
	"os/signal"
	"syscall"

	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-blog-search/internal/web"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/controller"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
	"github.com/Laisky/laisky-blog-search/library/log"
)

const defaultMaxLimit = 100

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `search API service for laisky blog`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		defer closeStore(context.Background())

		if err := runAPI(ctx); err != nil {
			log.Logger.Panic("run api", zap.Error(err))
		}
	},
}

func runAPI(ctx context.Context) error {
	if !gconfig.Shared.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	defaultLimit := gconfig.Shared.GetInt("settings.search.default_limit")
	if defaultLimit == 0 {
		defaultLimit = search.DefaultLimit
	}
	maxLimit := gconfig.Shared.GetInt("settings.search.max_limit")
	if maxLimit == 0 {
		maxLimit = max(defaultMaxLimit, defaultLimit)
	}

	blog, err := controller.New(app.ranker, app.posts, app.tokens,
		controller.WithLimits(defaultLimit, maxLimit))
	if err != nil {
		return err
	}

	domains := gconfig.Shared.GetStringSlice("settings.web.cors.allowed_domains")
	if len(domains) == 0 {
		domains = web.DefaultAllowedDomains
	}

	return web.RunServer(ctx, gconfig.Shared.GetString("listen"), web.NewServer(blog, domains))
}

func init() {
	rootCMD.AddCommand(apiCMD)
}
