package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"blogium/config"
	"blogium/models"
)

// ImageStorage stores post images and returns their public URL.
type ImageStorage interface {
	Save(file multipart.File, filename, contentType string, size int64) (string, error)
}

var (
	storage     ImageStorage
	storageOnce sync.Once
)

// GetStorage returns the configured image storage: S3/MinIO when enabled,
// the local static directory otherwise.
func GetStorage() ImageStorage {
	storageOnce.Do(func() {
		cfg := config.Get()
		if cfg.S3Enabled {
			s3s, err := newS3Storage(cfg)
			if err != nil {
				if Sugar != nil {
					Sugar.Errorf("s3 storage init failed, falling back to local: %v", err)
				}
			} else {
				storage = s3s
				return
			}
		}
		storage = &localStorage{dir: cfg.UploadsDir}
	})
	return storage
}

// localStorage writes images under the static uploads directory, sharded by
// date, and records each file for TTL cleanup of never-attached uploads.
type localStorage struct {
	dir string
}

func (l *localStorage) Save(file multipart.File, filename, contentType string, size int64) (string, error) {
	now := time.Now()
	baseDir := filepath.Join(l.dir, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	safeName := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(filename)))
	dstPath := filepath.Join(baseDir, safeName)

	out, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	relURL := "/" + filepath.ToSlash(dstPath)

	// Record for the background sweeper; best-effort so an unavailable DB
	// never fails the upload itself.
	conf := config.Get()
	ttl := time.Duration(conf.UploadsSelfDestructMinutes) * time.Minute
	absPath, _ := filepath.Abs(dstPath)
	go func() {
		defer func() { _ = recover() }()
		if db := config.DB(); db != nil {
			_ = db.Create(&models.UploadedFile{
				FilePath: absPath,
				URL:      relURL,
				ExpireAt: time.Now().Add(ttl),
			}).Error
		}
	}()

	return relURL, nil
}

// s3Storage uploads images to S3, or to MinIO when a custom endpoint is
// configured. The bucket is created at client creation if missing.
type s3Storage struct {
	client *s3.S3
	bucket string
}

func newS3Storage(cfg config.AppConfig) (*s3Storage, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.S3Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		),
	}

	// Custom endpoint means MinIO-style path addressing.
	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if !cfg.S3UseSSL {
			awsConfig.DisableSSL = aws.Bool(true)
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}

	st := &s3Storage{client: s3.New(sess), bucket: cfg.S3Bucket}

	if _, err := st.client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(st.bucket)}); err != nil {
		// Local MinIO may start empty; creating an existing bucket is harmless.
		_, _ = st.client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(st.bucket)})
	}

	return st, nil
}

func (s *s3Storage) Save(file multipart.File, filename, contentType string, size int64) (string, error) {
	key := fmt.Sprintf("post_images/%s/%s%s",
		time.Now().Format("2006/01/02"),
		uuid.NewString(),
		strings.ToLower(filepath.Ext(filepath.Base(filename))),
	)

	body, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	_, err = s.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	endpoint := aws.StringValue(s.client.Config.Endpoint)
	if endpoint != "" && !strings.Contains(endpoint, "amazonaws.com") {
		protocol := "https"
		if s.client.Config.DisableSSL != nil && *s.client.Config.DisableSSL {
			protocol = "http"
		}
		endpoint = strings.TrimPrefix(endpoint, "http://")
		endpoint = strings.TrimPrefix(endpoint, "https://")
		return fmt.Sprintf("%s://%s/%s/%s", protocol, endpoint, s.bucket, key), nil
	}

	region := aws.StringValue(s.client.Config.Region)
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, region, key), nil
}
