package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"ewintr.nl/vidsum/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3 stores summaries as public text objects. The object URL is derived
// from the bucket and key, so storing the same name twice yields the same
// URL.
type S3 struct {
	client *s3.Client
	bucket string
	region string
}

func NewS3(client *s3.Client, bucket, region string) *S3 {
	return &S3{
		client: client,
		bucket: bucket,
		region: region,
	}
}

func (s *S3) Put(ctx context.Context, filename, content, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(filename),
		Body:        strings.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
				return "", fmt.Errorf("%w: %v", model.ErrUpstreamAuth, err)
			}
		}

		return "", fmt.Errorf("failed to store summary: %w", err)
	}

	escaped := (&url.URL{Path: filename}).EscapedPath()

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped), nil
}
