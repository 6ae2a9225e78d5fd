// Package storage keeps off-host copies of registry snapshots in S3 compatible
// object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/fleethub/pkg/log"
	"github.com/autopeer-io/fleethub/pkg/options"
)

type MinIO struct {
	client     *minio.Client
	bucketName string
	objectKey  string
	timeout    time.Duration
}

// NewMinIO 创建基于 S3 协议的快照备份
// snapshotPath 的扩展名会追加到对象名上, 以保留编码格式
func NewMinIO(opts *options.S3Options, snapshotPath string) (*MinIO, error) {
	minioOpts := &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	}

	client, err := minio.New(opts.Endpoint, minioOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIO{
		client:     client,
		bucketName: opts.BucketName,
		objectKey:  objectKey(opts.ObjectKey, snapshotPath),
		timeout:    opts.Timeout,
	}, nil
}

func objectKey(key, snapshotPath string) string {
	return strings.TrimPrefix(key, "/") + strings.ToLower(filepath.Ext(snapshotPath))
}

// ObjectKey returns the key backups are written to.
func (p *MinIO) ObjectKey() string {
	return p.objectKey
}

func (p *MinIO) CheckBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		// 自动创建桶（仅开发环境便利性，生产环境通常手动管理）
		log.Info("Bucket does not exist, creating...", "bucket", p.bucketName)
		if err := p.client.MakeBucket(ctx, p.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Upload overwrites the backup object with data.
func (p *MinIO) Upload(ctx context.Context, data []byte) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	info, err := p.client.PutObject(ctx, p.bucketName, p.objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(p.objectKey)})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot to %s/%s: %w", p.bucketName, p.objectKey, err)
	}

	log.Debug("Snapshot backup uploaded", "bucket", info.Bucket, "key", info.Key, "size", info.Size, "etag", info.ETag)
	return nil
}

func contentType(key string) string {
	switch filepath.Ext(key) {
	case ".yaml", ".yml":
		return "application/yaml"
	case ".cbor":
		return "application/cbor"
	default:
		return "application/json"
	}
}
