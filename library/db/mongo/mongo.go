// Package mongo provides a wrapper for the MongoDB client.
package mongo

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Laisky/laisky-blog-rest/library/log"
)

const (
	defaultTimeout      = 30 * time.Second
	healthCheckInterval = 10 * time.Second
	defaultHeartbeat    = 10 * time.Second
)

// DB is the handle used by dao packages
type DB interface {
	Close(ctx context.Context) error
	GetCol(colName string) *mongo.Collection
	CurrentDB() *mongo.Database
	StartSession() (mongo.Session, error)
}

// DialInfo defines the MongoDB connection information.
type DialInfo struct {
	Addr,
	DBName,
	User,
	Pwd string
	AuthDB string
}

type db struct {
	mu       sync.RWMutex
	cli      *mongo.Client
	dialInfo DialInfo
	cancel   context.CancelFunc
}

// hooks replaced in tests
var (
	connectMongo = func(ctx context.Context, clientOpts *options.ClientOptions) (*mongo.Client, error) {
		return mongo.Connect(ctx, clientOpts)
	}
	pingMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Ping(ctx, readpref.Primary())
	}
	disconnectMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Disconnect(ctx)
	}
)

// BuildURI builds a MongoDB connection URI from the given dial info.
func BuildURI(dialInfo DialInfo) string {
	uri := &url.URL{
		Scheme: "mongodb",
		Host:   dialInfo.Addr,
		Path:   "/" + dialInfo.DBName,
	}
	if dialInfo.User != "" || dialInfo.Pwd != "" {
		uri.User = url.UserPassword(dialInfo.User, dialInfo.Pwd)
	}
	if dialInfo.AuthDB != "" {
		query := url.Values{}
		query.Set("authSource", dialInfo.AuthDB)
		uri.RawQuery = query.Encode()
	}

	return uri.String()
}

// NewDB connects and pings mongodb, failures surface at startup rather than on first request.
func NewDB(ctx context.Context, dialInfo DialInfo) (DB, error) {
	log.Logger.Info("try to connect to mongodb",
		zap.String("addr", dialInfo.Addr),
		zap.String("db", dialInfo.DBName),
	)
	if dialInfo.Addr == "" || dialInfo.DBName == "" {
		return nil, errors.New("mongo addr and db name are required")
	}

	connCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(BuildURI(dialInfo)).
		SetConnectTimeout(defaultTimeout).
		SetServerSelectionTimeout(defaultTimeout).
		SetHeartbeatInterval(defaultHeartbeat).
		SetRetryReads(true).
		SetRetryWrites(true).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(300 * time.Second)

	cli, err := connectMongo(connCtx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connect db")
	}

	if err = pingMongo(connCtx, cli); err != nil {
		_ = disconnectMongo(context.Background(), cli)
		return nil, errors.Wrap(err, "ping db")
	}

	d := &db{cli: cli, dialInfo: dialInfo}
	d.startHealthCheck()
	return d, nil
}

// startHealthCheck only logs, the driver recovers connections by itself.
func (d *db) startHealthCheck() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	go func() {
		ticker := time.NewTicker(healthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			cli := d.client()
			if cli == nil {
				continue
			}

			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := pingMongo(pingCtx, cli)
			cancel()
			if err != nil && ctx.Err() == nil {
				log.Logger.Warn("mongodb ping failed",
					zap.Error(err),
					zap.String("addr", d.dialInfo.Addr),
				)
			}
		}
	}()
}

// CurrentDB returns the database based on the dial info.
func (d *db) CurrentDB() *mongo.Database {
	return d.client().Database(d.dialInfo.DBName)
}

// GetCol returns a collection handle by name.
func (d *db) GetCol(colName string) *mongo.Collection {
	return d.CurrentDB().Collection(colName)
}

// StartSession starts a client session for transactions.
func (d *db) StartSession() (mongo.Session, error) {
	return d.client().StartSession()
}

// Close stops health check and disconnects, it is safe to call more than once.
func (d *db) Close(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	d.mu.Lock()
	cli := d.cli
	d.cli = nil
	d.mu.Unlock()
	if cli == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	closeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := disconnectMongo(closeCtx, cli); err != nil {
		return errors.Wrap(err, "disconnect")
	}

	return nil
}

func (d *db) client() *mongo.Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cli
}
