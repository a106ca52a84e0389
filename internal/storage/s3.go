package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	"github.com/imrishuroy/printeasy-orderflow/internal/aws"
)

// S3Uploader writes objects to S3. destination is the bucket.
type S3Uploader struct {
	client        aws.S3API
	region        string
	publicBaseURL string
	acl           s3types.ObjectCannedACL
}

// NewS3Uploader sends acl with every object. An empty acl sends none, which
// buckets with ObjectOwnership=BucketOwnerEnforced require; links are then
// readable only if a bucket policy or publicBaseURL serves them.
func NewS3Uploader(client aws.S3API, region, publicBaseURL, acl string) *S3Uploader {
	return &S3Uploader{
		client:        client,
		region:        region,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		acl:           s3types.ObjectCannedACL(acl),
	}
}

// Upload puts content under key filename and returns its public link.
func (u *S3Uploader) Upload(ctx context.Context, content []byte, filename, destination string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        sdkaws.String(destination),
		Key:           sdkaws.String(filename),
		Body:          bytes.NewReader(content),
		ContentLength: sdkaws.Int64(int64(len(content))),
		ContentType:   sdkaws.String(mimetype.Detect(content).String()),
		ACL:           u.acl,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", destination, filename, err)
	}
	return u.link(filename, destination), nil
}

func (u *S3Uploader) link(key, bucket string) string {
	escaped := escapeKey(key)
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, u.region, escaped)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
