package media

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig connection settings of s3 compatible storage
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// Prefix prepended to every object key
	Prefix string
	Secure bool
	// PublicURL base url to build asset urls, defaults to endpoint/bucket
	PublicURL string
}

// MinioStore Store backed by minio
type MinioStore struct {
	cli *minio.Client
	cfg MinioConfig
}

// NewMinioStore create new minio store
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 endpoint and bucket are required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new minio client")
	}

	if cfg.PublicURL == "" {
		scheme := "http://"
		if cfg.Secure {
			scheme = "https://"
		}
		cfg.PublicURL = scheme + cfg.Endpoint + "/" + cfg.Bucket
	}
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")

	return &MinioStore{cli: cli, cfg: cfg}, nil
}

// Put upload data
func (s *MinioStore) Put(ctx context.Context,
	folder, filename, contentType string, data []byte) (Asset, error) {
	logger := gmw.GetLogger(ctx)
	key := objectKey(s.cfg.Prefix, folder, filename, contentType)

	if _, err := s.cli.PutObject(ctx,
		s.cfg.Bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	); err != nil {
		return Asset{}, errors.Wrapf(err, "put object %q", key)
	}

	logger.Info("upload to minio", zap.String("objkey", key), zap.Int("size", len(data)))
	return Asset{
		PublicID: key,
		URL:      s.cfg.PublicURL + "/" + key,
	}, nil
}

// Remove delete object
func (s *MinioStore) Remove(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}

	err := s.cli.RemoveObject(ctx, s.cfg.Bucket, publicID, minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return nil
		}

		return errors.Wrapf(err, "remove object %q", publicID)
	}

	gmw.GetLogger(ctx).Info("remove from minio", zap.String("objkey", publicID))
	return nil
}
