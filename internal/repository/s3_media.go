package repository

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/mansoorceksport/trackhub/internal/config"
)

// S3MediaStorage implements domain.MediaStorage on any S3 compatible store
type S3MediaStorage struct {
	client     *s3.Client
	bucket     string
	prefix     string
	publicBase string
}

// NewS3MediaStorage connects to the bucket, creating it when missing
func NewS3MediaStorage(ctx context.Context, cfg appConfig.S3Config) (*S3MediaStorage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	// Path style is required by SeaweedFS and MinIO
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	storage := &S3MediaStorage{
		client:     client,
		bucket:     cfg.Bucket,
		prefix:     strings.Trim(cfg.MediaPrefix, "/"),
		publicBase: strings.TrimRight(cfg.PublicBase(), "/"),
	}

	if err := storage.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return storage, nil
}

func (s *S3MediaStorage) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Upload stores data under key and returns the key
func (s *S3MediaStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return key, nil
}

// Copy duplicates an object inside the bucket
func (s *S3MediaStorage) Copy(ctx context.Context, srcKey, dstKey string) error {
	source := url.PathEscape(s.bucket) + "/" + escapeKey(s.objectKey(srcKey))
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(source),
		Key:        aws.String(s.objectKey(dstKey)),
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", srcKey, err)
	}
	return nil
}

func (s *S3MediaStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public link of key. Empty keys map to an empty link.
func (s *S3MediaStorage) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.publicBase + "/" + escapeKey(s.objectKey(key))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// ensureBucket checks if bucket exists, creating it if necessary
func (s *S3MediaStorage) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(s.bucket),
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}
