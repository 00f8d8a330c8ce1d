// Package storage keeps rendered reports on local disk or in MinIO.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"quiz-result-service/internal/config"
)

// Provider stores an object and returns the URL it can be fetched from.
type Provider interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// New picks the provider named by cfg.Storage.Type.
func New(ctx context.Context, cfg config.Config) (Provider, error) {
	switch cfg.Storage.Type {
	case "minio":
		return NewMinio(ctx, MinioConfig{
			Endpoint:      cfg.Storage.MinioEndpoint,
			AccessKey:     cfg.Storage.MinioAccessKey,
			SecretKey:     cfg.Storage.MinioSecretKey,
			Bucket:        cfg.Storage.MinioBucket,
			Secure:        cfg.Storage.MinioSecure,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
	case "", "local":
		return NewLocal(cfg.Storage.LocalPath, cfg.Storage.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// Local writes objects under a directory.
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) *Local {
	if root == "" {
		root = "reports"
	}
	if baseURL == "" {
		baseURL = "/reports"
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	dst, err := l.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	// write then rename so readers never see a partial file
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return l.URL(name), nil
}

func (l *Local) Delete(_ context.Context, name string) error {
	dst, err := l.path(name)
	if err != nil {
		return err
	}
	return os.Remove(dst)
}

func (l *Local) URL(name string) string {
	return l.baseURL + "/" + name
}

func (l *Local) path(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if clean == "/" {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(l.root, clean), nil
}

// MinioConfig configures the MinIO provider.
type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Secure        bool
	PublicBaseURL string
}

// Minio stores objects in a MinIO (or S3-compatible) bucket.
type Minio struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinio connects and makes sure the bucket exists.
func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return newMinio(client, cfg), nil
}

func newMinio(client *minio.Client, cfg MinioConfig) *Minio {
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = "/" + cfg.Bucket
	}
	return &Minio{client: client, bucket: cfg.Bucket, baseURL: baseURL}
}

func (m *Minio) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: `attachment; filename="` + name + `"`,
	})
	if err != nil {
		return "", err
	}
	return m.URL(name), nil
}

func (m *Minio) Delete(ctx context.Context, name string) error {
	return m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{})
}

func (m *Minio) URL(name string) string {
	return m.baseURL + "/" + name
}
