package cmd

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-blog-rest/internal/web"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/controller"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/dao"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/service"
	"github.com/Laisky/laisky-blog-rest/library/config"
	"github.com/Laisky/laisky-blog-rest/library/db/mongo"
	rdb "github.com/Laisky/laisky-blog-rest/library/db/redis"
	"github.com/Laisky/laisky-blog-rest/library/jwt"
	"github.com/Laisky/laisky-blog-rest/library/log"
	"github.com/Laisky/laisky-blog-rest/library/media"
	"github.com/Laisky/laisky-blog-rest/library/throttle"
)

const (
	defaultMaxUploadMB     = 5
	defaultMaxImageWidth   = 1600
	defaultTokenTTLHours   = 7 * 24
	defaultBlogsCacheTTL   = 30
	defaultAuthRatePerSec  = 5
	defaultAuthRateBurst   = 10
	authTotalRateFactor    = 100
	dryMediaBaseURL        = "http://localhost/media"
	redisCacheKeyPrefix    = "laisky-blog-rest:"
	mongoDisconnectTimeout = 5 * time.Second
	ensureIndexesTimeout   = time.Minute
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `rest API service for the blog`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		server, closeFn, err := setupServer(ctx)
		if err != nil {
			log.Logger.Panic("setup server", zap.Error(err))
		}
		defer closeFn()

		web.RunServer(gconfig.S.GetString("listen"), server)
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}

// dialMongo connect to the blog database
func dialMongo(ctx context.Context) (mongo.DB, error) {
	return mongo.NewDB(ctx, mongo.DialInfo{
		Addr:   gconfig.S.GetString("settings.db.blog.addr"),
		DBName: gconfig.S.GetString("settings.db.blog.db"),
		User:   gconfig.S.GetString("settings.db.blog.user"),
		Pwd:    gconfig.S.GetString("settings.db.blog.pwd"),
		AuthDB: gconfig.S.GetString("settings.db.blog.auth_db"),
	})
}

// setupStore mongo store, or an in-memory one in dry mode
func setupStore(ctx context.Context) (service.Store, func(), error) {
	if gconfig.S.GetBool("dry") {
		log.Logger.Info("dry mode, use in-memory store")
		return dao.NewMemory(), func() {}, nil
	}

	db, err := dialMongo(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect mongo")
	}

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			log.Logger.Error("close mongo", zap.Error(err))
		}
	}

	store, err := openMongoStore(ctx, db)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return store, closeFn, nil
}

// openMongoStore mongo dao with its unique indexes in place,
// slugs and emails are only unique once the indexes exist.
func openMongoStore(ctx context.Context, db mongo.DB) (*dao.Blog, error) {
	store := dao.New(log.Logger, db)

	ctx, cancel := context.WithTimeout(ctx, ensureIndexesTimeout)
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, errors.Wrap(err, "ensure indexes")
	}

	return store, nil
}

// setupMedia s3 compatible object store, or an in-memory one in dry mode
func setupMedia() (media.Store, error) {
	if gconfig.S.GetBool("dry") {
		return media.NewMemoryStore(dryMediaBaseURL), nil
	}

	store, err := media.NewMinioStore(media.MinioConfig{
		Endpoint:  gconfig.S.GetString("settings.media.s3.endpoint"),
		AccessKey: gconfig.S.GetString("settings.media.s3.access_key"),
		SecretKey: gconfig.S.GetString("settings.media.s3.secret_key"),
		Bucket:    gconfig.S.GetString("settings.media.s3.bucket"),
		Prefix:    gconfig.S.GetString("settings.media.s3.prefix"),
		Secure:    gconfig.S.GetBool("settings.media.s3.secure"),
		PublicURL: gconfig.S.GetString("settings.media.s3.public_url"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "new minio store")
	}

	return store, nil
}

// setupCacheOption cache of the blog list, skipped if redis is not configured
func setupCacheOption(ctx context.Context) (service.Option, error) {
	addr := gconfig.S.GetString("settings.db.redis.addr")
	if addr == "" || gconfig.S.GetBool("dry") {
		return nil, nil
	}

	db := rdb.NewDB(&redis.Options{
		Addr:     addr,
		Password: gconfig.S.GetString("settings.db.redis.pwd"),
		DB:       gconfig.S.GetInt("settings.db.redis.db"),
	})
	if err := db.Ping(ctx); err != nil {
		return nil, errors.Wrap(err, "connect redis")
	}

	ttl := time.Duration(config.GetIntOr("settings.cache.blogs_ttl_seconds", defaultBlogsCacheTTL)) * time.Second
	return service.WithCache(rdb.NewCache(db, redisCacheKeyPrefix), ttl), nil
}

// setupServer wire all components into the gin engine
func setupServer(ctx context.Context) (server *gin.Engine, closeFn func(), err error) {
	jwtSigner, err := jwt.New([]byte(gconfig.S.GetString("settings.secret")))
	if err != nil {
		return nil, nil, errors.Wrap(err, "new jwt")
	}

	store, closeStore, err := setupStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			closeStore()
		}
	}()

	mediaStore, err := setupMedia()
	if err != nil {
		return nil, nil, err
	}

	maxUploadBytes := config.GetIntOr("settings.media.max_upload_mb", defaultMaxUploadMB) << 20
	images := media.NewProcessor(maxUploadBytes,
		config.GetIntOr("settings.media.max_width", defaultMaxImageWidth))

	opts := []service.Option{
		service.WithTokenTTL(time.Duration(
			config.GetIntOr("settings.web.token_ttl_hours", defaultTokenTTLHours)) * time.Hour),
	}
	cacheOpt, err := setupCacheOption(ctx)
	if err != nil {
		return nil, nil, err
	}
	if cacheOpt != nil {
		opts = append(opts, cacheOpt)
	}

	svc, err := service.New(log.Logger, store, mediaStore, images, jwtSigner, opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "new blog service")
	}

	debug := gconfig.S.GetBool("debug")
	ctrl := controller.New(svc, controller.Config{
		CookieSecure:   gconfig.S.GetBool("settings.web.cookie_secure"),
		MaxUploadBytes: int64(maxUploadBytes),
		Debug:          debug,
	})

	rps := config.GetIntOr("settings.web.ratelimit.rps", defaultAuthRatePerSec)
	burst := max(config.GetIntOr("settings.web.ratelimit.burst", defaultAuthRateBurst), rps)
	authThrottle, err := throttle.New(throttle.Config{
		TotalNPerSec: rps * authTotalRateFactor,
		TotalBurst:   burst * authTotalRateFactor,
		EachNPerSec:  rps,
		EachBurst:    burst,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "new auth throttle")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	server, err = web.NewServer(web.Option{
		CORSOrigins:  gconfig.S.GetStringSlice("settings.web.cors_origins"),
		Debug:        debug,
		Metrics:      true,
		AuthThrottle: authThrottle,
	}, jwtSigner, ctrl)
	if err != nil {
		return nil, nil, errors.Wrap(err, "new server")
	}

	return server, closeStore, nil
}
