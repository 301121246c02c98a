package ledgerstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	DefaultBucket = "phone-numbers"
	DefaultObject = "phoneNumbers.json"
	DefaultRegion = "us-east-1"
)

// ObjectConfig locates the snapshot blob in S3-compatible storage.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	Object    string
}

func (c *ObjectConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("object store endpoint is required")
	}
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.Object == "" {
		c.Object = DefaultObject
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	return nil
}

// Object keeps the snapshot as a single JSON blob.
type Object struct {
	client *miniogo.Client
	bucket string
	object string
}

func NewObject(cfg *ObjectConfig) (*Object, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Object{client: client, bucket: cfg.Bucket, object: cfg.Object}, nil
}

// LoadMap returns an empty snapshot when the bucket or blob is missing.
func (o *Object) LoadMap(ctx context.Context) (map[string]time.Time, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, o.object, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", o.bucket, o.object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		switch miniogo.ToErrorResponse(err).Code {
		case "NoSuchKey", "NoSuchBucket":
			return map[string]time.Time{}, nil
		}
		return nil, fmt.Errorf("failed to read %s/%s: %w", o.bucket, o.object, err)
	}
	return decodeSnapshot(data)
}

// SaveMap overwrites the blob, creating the bucket on first use.
func (o *Object) SaveMap(ctx context.Context, numbers map[string]time.Time) error {
	data, err := encodeSnapshot(numbers)
	if err != nil {
		return err
	}

	exists, err := o.client.BucketExists(ctx, o.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", o.bucket, err)
	}
	if !exists {
		if err := o.client.MakeBucket(ctx, o.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", o.bucket, err)
		}
	}

	_, err = o.client.PutObject(ctx, o.bucket, o.object, bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", o.bucket, o.object, err)
	}
	return nil
}
