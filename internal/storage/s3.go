// Package storage moves job artifacts between the local filesystem and S3:
// s3:// inputs are fetched before a run, finished artifacts are uploaded
// after it.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Store wraps the AWS S3 client for artifact transfer.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// New builds a store against bucket using the default AWS credential chain.
func New(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket not configured")
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	cli := s3.NewFromConfig(cfg)
	return &S3Store{
		client:   cli,
		uploader: manager.NewUploader(cli),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}, nil
}

// Ping verifies the bucket is reachable with the current credentials.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

// ParseURL splits an s3://bucket/key reference.
func ParseURL(s3url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return path[:slash], path[slash+1:], nil
}

// FetchToTemp downloads an s3:// object to a temp file and returns its path.
// The caller removes the file when done.
func (s *S3Store) FetchToTemp(ctx context.Context, s3url string) (string, error) {
	bucket, key, err := ParseURL(s3url)
	if err != nil {
		return "", err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("s3 get %s: %w", s3url, err)
	}
	defer out.Body.Close()

	f, err := os.CreateTemp("", "slidecast-in-*"+filepath.Ext(key))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("download s3 object: %w", err)
	}

	log.Info().Str("bucket", bucket).Str("key", key).Str("file", f.Name()).Msg("fetched s3 input")
	return f.Name(), nil
}

// UploadArtifact uploads a local file under <prefix>/<jobID>/<basename> using
// the multipart uploader (videos can be large) and returns the s3:// URL.
func (s *S3Store) UploadArtifact(ctx context.Context, jobID, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	key := filepath.Base(localPath)
	if s.prefix != "" {
		key = s.prefix + "/" + jobID + "/" + key
	} else {
		key = jobID + "/" + key
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}

	url := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	log.Info().Str("url", url).Msg("uploaded artifact")
	return url, nil
}

// UploadAll uploads the non-empty paths and returns their s3:// URLs.
func (s *S3Store) UploadAll(ctx context.Context, jobID string, paths []string) ([]string, error) {
	var urls []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		url, err := s.UploadArtifact(ctx, jobID, p)
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
