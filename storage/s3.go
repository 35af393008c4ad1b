// Package storage persists pipeline artifacts (research digests, scripts,
// rendered videos) to S3 so the orchestrator and the render worker can
// exchange them by key instead of shipping blobs over Kafka.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"giggle/types"
)

// Store wraps the AWS SDK S3 client with the narrow surface the pipeline needs.
type Store struct {
	client api
	bucket string
	prefix string
}

// api is the slice of the S3 client we use, extracted so tests can fake it.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Config holds S3 configuration for the artifact store.
type Config struct {
	Bucket string
	Region string
	// Prefix is prepended to every key, e.g. "giggle".
	Prefix string
}

// New creates a store using the default AWS config/credential chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// newWithClient is used by tests.
func newWithClient(client api, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// DigestKey returns the object key for a topic's research digest.
func (s *Store) DigestKey(pageID string) string {
	return s.key("digests", pageID+".json")
}

// ScriptKey returns the object key for a topic's narration script.
func (s *Store) ScriptKey(pageID string) string {
	return s.key("scripts", pageID+".txt")
}

// VideoKey returns the object key for a rendered video.
func (s *Store) VideoKey(pageID string) string {
	return s.key("videos", pageID+".mp4")
}

// PutDigest stores the research digest as JSON and returns its key.
func (s *Store) PutDigest(ctx context.Context, pageID string, digest *types.Digest) (string, error) {
	body, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal digest: %w", err)
	}
	key := s.DigestKey(pageID)
	return key, s.put(ctx, key, bytes.NewReader(body), "application/json")
}

// GetDigest fetches and decodes a stored research digest.
func (s *Store) GetDigest(ctx context.Context, key string) (*types.Digest, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get digest %s: %w", key, err)
	}
	defer out.Body.Close()

	var digest types.Digest
	if err := json.NewDecoder(out.Body).Decode(&digest); err != nil {
		return nil, fmt.Errorf("decode digest %s: %w", key, err)
	}
	return &digest, nil
}

// PutScript stores the narration script and returns its key.
func (s *Store) PutScript(ctx context.Context, pageID, script string) (string, error) {
	key := s.ScriptKey(pageID)
	return key, s.put(ctx, key, bytes.NewReader([]byte(script)), "text/plain; charset=utf-8")
}

// PutVideo uploads a rendered video and returns its key.
func (s *Store) PutVideo(ctx context.Context, pageID string, body io.Reader) (string, error) {
	key := s.VideoKey(pageID)
	return key, s.put(ctx, key, body, "video/mp4")
}

// GetVideo fetches a rendered video. Caller must Close the body.
func (s *Store) GetVideo(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", key, err)
	}
	return out.Body, nil
}

// Exists reports whether an object is present at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}
	return false, err
}

func (s *Store) put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) key(parts ...string) string {
	if s.prefix != "" {
		parts = append([]string{s.prefix}, parts...)
	}
	return path.Join(parts...)
}
