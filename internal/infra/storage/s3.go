package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/insights"
)

var _ insights.Archive = (*S3Store)(nil)

// S3Store archives insight reports in an S3 bucket.
type S3Store struct {
	client *s3.Client
	region string
	bucket string
}

func NewS3(ctx context.Context, region, bucket, accessKey, secretKey string) (*S3Store, error) {
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("AWS credentials not set")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS region not set")
	}
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Store{client: s3.NewFromConfig(awsCfg), region: region, bucket: bucket}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	uploader := manager.NewUploader(s.client)

	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := uploader.Upload(ctxUpload, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
