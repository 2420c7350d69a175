// Package storage uploads avatar images to S3-compatible object storage
// and derives the public URL persisted on the user row.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AvatarStore wraps an S3 client bound to a single bucket.
type AvatarStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewAvatarStore builds an AvatarStore from environment variables:
//
//	S3_ENDPOINT           endpoint URL (empty for AWS proper)
//	AWS_REGION            region name
//	S3_BUCKET_NAME        target bucket
//	AWS_ACCESS_KEY_ID     static credentials
//	AWS_SECRET_ACCESS_KEY
//	S3_USE_PATH_STYLE     "true" for MinIO-style addressing
//	S3_PUBLIC_URL         base URL objects are served from (defaults to endpoint/bucket)
//
// It returns an error when the AWS config cannot be assembled; a nil store
// disables avatar upload at the handler level.
func NewAvatarStore(ctx context.Context) (*AvatarStore, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	region := os.Getenv("AWS_REGION")
	bucket := os.Getenv("S3_BUCKET_NAME")
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	usePathStyle := os.Getenv("S3_USE_PATH_STYLE") == "true"

	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = usePathStyle
	})

	publicURL := os.Getenv("S3_PUBLIC_URL")
	if publicURL == "" {
		publicURL = strings.TrimRight(endpoint, "/") + "/" + bucket
	}

	return &AvatarStore{client: client, bucket: bucket, publicURL: publicURL}, nil
}

// Upload stores the avatar bytes under the given key and returns the
// public URL of the object.
func (s *AvatarStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s.publicURL, "/") + "/" + key, nil
}

// AvatarKey derives a stable object key for a user's avatar. Hashing the
// email keeps the address out of public URLs; re-uploads overwrite the
// previous object.
func AvatarKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "avatars/" + hex.EncodeToString(sum[:16])
}
