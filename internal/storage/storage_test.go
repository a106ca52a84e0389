package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestStoredName(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "My_Notes_20260102_150405.pdf", StoredName("My Notes.v2.pdf", now))
	assert.Equal(t, "file_20260102_150405.png", StoredName("@@@.PNG", now))
	assert.Equal(t, "report_20260102_150405.pdf", StoredName("../../report.pdf", now))
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "uploads/9876543210/a.pdf", ObjectKey("/uploads/", "9876543210", "a.pdf"))
	assert.Equal(t, "9876543210/a.pdf", ObjectKey("", "9876543210", "a.pdf"))
}

func TestS3Uploader_Upload(t *testing.T) {
	client := &fakeS3{}
	u := NewS3Uploader(client, "ap-south-1", "", "public-read")

	link, err := u.Upload(context.Background(), []byte("%PDF-1.4 body"), "uploads/98/My Notes.pdf", "printeasy")
	require.NoError(t, err)

	assert.Equal(t, "https://printeasy.s3.ap-south-1.amazonaws.com/uploads/98/My%20Notes.pdf", link)
	assert.Equal(t, "printeasy", *client.input.Bucket)
	assert.Equal(t, "uploads/98/My Notes.pdf", *client.input.Key)
	assert.Equal(t, s3types.ObjectCannedACLPublicRead, client.input.ACL)
	assert.Equal(t, "application/pdf", *client.input.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 body"), client.body)
}

func TestS3Uploader_NoACLForOwnerEnforcedBuckets(t *testing.T) {
	client := &fakeS3{}
	u := NewS3Uploader(client, "ap-south-1", "https://cdn.example.com", "")

	link, err := u.Upload(context.Background(), []byte("%PDF-1.4 body"), "uploads/98/a.pdf", "printeasy")
	require.NoError(t, err)

	assert.Empty(t, client.input.ACL)
	assert.Equal(t, "https://cdn.example.com/uploads/98/a.pdf", link)
}

func TestS3Uploader_PublicBaseURL(t *testing.T) {
	u := NewS3Uploader(&fakeS3{}, "us-east-1", "https://cdn.example.com/", "public-read")

	link, err := u.Upload(context.Background(), []byte("x"), "a/b.png", "bucket")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a/b.png", link)
}

func TestS3Uploader_Error(t *testing.T) {
	u := NewS3Uploader(&fakeS3{err: errors.New("access denied")}, "us-east-1", "", "public-read")

	_, err := u.Upload(context.Background(), []byte("x"), "a.pdf", "bucket")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestLocalUploader_Upload(t *testing.T) {
	root := t.TempDir()
	u := NewLocalUploader(root, "http://localhost:8080/")

	link, err := u.Upload(context.Background(), []byte("data"), "uploads/98/a.pdf", "shop")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/files/shop/uploads/98/a.pdf", link)
	got, err := os.ReadFile(filepath.Join(root, "shop", "uploads", "98", "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestLocalUploader_RejectsEscape(t *testing.T) {
	u := NewLocalUploader(t.TempDir(), "")

	_, err := u.Upload(context.Background(), []byte("data"), "../../etc/passwd", "shop")
	assert.Error(t, err)
}
