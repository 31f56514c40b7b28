// Package cmd command line
package cmd

import (
	"context"
	"fmt"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gutils "github.com/Laisky/go-utils/v6"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/dao"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/service"
	"github.com/Laisky/laisky-blog-search/library/config"
	"github.com/Laisky/laisky-blog-search/library/db/mongo"
	"github.com/Laisky/laisky-blog-search/library/db/sql"
	"github.com/Laisky/laisky-blog-search/library/jwt"
	"github.com/Laisky/laisky-blog-search/library/log"
)

var rootCMD = &cobra.Command{
	Use:   "laisky-blog-search",
	Short: "laisky-blog-search",
	Long:  `search API service for laisky blog`,
	Args:  gcmd.NoExtraArgs,
}

// modules built by initialize, shared by sub commands
type modules struct {
	store  dao.Blog
	ranker *search.Ranker
	posts  *service.Blog
	tokens *jwt.JWT
}

var app modules

func initialize(ctx context.Context, cmd *cobra.Command) error {
	if err := gconfig.Shared.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind pflags")
	}

	if err := setupSettings(ctx); err != nil {
		return errors.Wrap(err, "setup settings")
	}
	if err := setupLogger(ctx); err != nil {
		return errors.Wrap(err, "setup logger")
	}
	if err := setupLibrary(ctx); err != nil {
		return errors.Wrap(err, "setup library")
	}
	if err := setupModules(ctx); err != nil {
		return errors.Wrap(err, "setup modules")
	}

	return nil
}

func setupSettings(_ context.Context) error {
	// mode
	if gconfig.Shared.GetBool("debug") {
		fmt.Println("run in debug mode")
		gconfig.Shared.Set("log-level", "debug")
	} else { // prod mode
		fmt.Println("run in prod mode")
	}

	// load configuration
	if err := config.LoadFromFile(gconfig.Shared.GetString("config")); err != nil {
		return errors.Wrap(err, "load config")
	}

	return validateStartupConfig()
}

func setupLogger(_ context.Context) error {
	lvl := gconfig.Shared.GetString("log-level")
	if err := log.Logger.ChangeLevel(logSDK.Level(lvl)); err != nil {
		return errors.Wrapf(err, "change log level to %q", lvl)
	}

	return nil
}

// setupLibrary connect the configured blog store
func setupLibrary(ctx context.Context) error {
	logger := log.Logger.Named("dao")
	prefix := "settings.db.blog."

	switch dbType := gconfig.Shared.GetString(prefix + "type"); dbType {
	case "", sql.TypeSQLite, sql.TypePostgres:
		if dbType == "" {
			dbType = sql.TypeSQLite
		}

		db, err := sql.NewDB(ctx, sql.DialInfo{
			Type:   dbType,
			DSN:    gconfig.Shared.GetString(prefix + "dsn"),
			Addr:   gconfig.Shared.GetString(prefix + "addr"),
			Port:   gconfig.Shared.GetInt(prefix + "port"),
			DBName: gconfig.Shared.GetString(prefix + "db"),
			User:   gconfig.Shared.GetString(prefix + "user"),
			Pwd:    gconfig.Shared.GetString(prefix + "pwd"),
		}, logger)
		if err != nil {
			return errors.Wrapf(err, "connect %s", dbType)
		}

		if app.store, err = dao.NewSQL(db, logger); err != nil {
			return errors.Wrap(err, "new sql dao")
		}
	case dbTypeMongo:
		db, err := mongo.NewDB(ctx, mongo.DialInfo{
			Addr:   gconfig.Shared.GetString(prefix + "addr"),
			DBName: gconfig.Shared.GetString(prefix + "db"),
			User:   gconfig.Shared.GetString(prefix + "user"),
			Pwd:    gconfig.Shared.GetString(prefix + "pwd"),
			AuthDB: gconfig.Shared.GetString(prefix + "auth_db"),
		})
		if err != nil {
			return errors.Wrap(err, "connect mongo")
		}

		if app.store, err = dao.NewMongo(db, logger, gutils.Clock.GetUTCNow); err != nil {
			return errors.Wrap(err, "new mongo dao")
		}
	default:
		return errors.Errorf("unsupported db type %q", dbType)
	}

	logger.Info("connected to blog store")
	return nil
}

func setupModules(_ context.Context) error {
	var err error
	mode := search.MatchCaseSensitive
	if gconfig.Shared.GetBool("settings.search.case_insensitive") {
		mode = search.MatchCaseInsensitive
	}

	if app.ranker, err = search.NewRanker(app.store,
		search.WithLogger(log.Logger.Named("search")),
		search.WithClock(gutils.Clock.GetUTCNow),
		search.WithMatchMode(mode),
	); err != nil {
		return errors.Wrap(err, "new ranker")
	}

	if app.posts, err = service.New(app.store,
		service.WithLogger(log.Logger.Named("blog")),
		service.WithClock(gutils.Clock.GetUTCNow),
		service.WithDryRun(gconfig.Shared.GetBool("dry")),
	); err != nil {
		return errors.Wrap(err, "new blog service")
	}

	if app.tokens, err = jwt.New([]byte(gconfig.Shared.GetString("settings.secret"))); err != nil {
		return errors.Wrap(err, "new jwt")
	}

	return nil
}

// closeStore release the store connection, used by PostRun of sub commands
func closeStore(ctx context.Context) {
	if app.store == nil {
		return
	}

	if err := app.store.Close(ctx); err != nil {
		log.Logger.Warn("close store", zap.Error(err))
	}
}

func init() {
	rootCMD.PersistentFlags().Bool("debug", false, "run in debug mode")
	rootCMD.PersistentFlags().Bool("dry", false, "run in dry mode, new posts are logged instead of saved")
	rootCMD.PersistentFlags().String("listen", "localhost:8080", "like `localhost:8080`")
	rootCMD.PersistentFlags().StringP("config", "c", "/etc/laisky-blog-search/settings.yml", "config file path")
	rootCMD.PersistentFlags().String("log-level", "info", "`debug/info/error`")
}

// Execute execute root command
func Execute() {
	if err := rootCMD.Execute(); err != nil {
		log.Logger.Panic("start", zap.Error(err))
	}
}
