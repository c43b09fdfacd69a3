package objectstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	lastDelete *s3.DeleteObjectInput
	lastHead   *s3.HeadObjectInput
	headErr    error
	err        error
}

func (f *fakeObjects) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.lastHead = in
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.lastDelete = in
	return &s3.DeleteObjectOutput{}, f.err
}

func testClient() *s3.Client {
	return s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
		UsePathStyle: true,
	})
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "bucket")
	require.Error(t, err)
	_, err = New(testClient(), " ")
	require.Error(t, err)
}

func TestStore_PresignUpload(t *testing.T) {
	st, err := New(testClient(), "claim-docs")
	require.NoError(t, err)

	url, err := st.PresignUpload(context.Background(), "users/u1/documents/d1/report.pdf", "application/pdf", 1024, 15*time.Minute)
	require.NoError(t, err)
	require.Contains(t, url, "/claim-docs/users/u1/documents/d1/report.pdf")
	require.Contains(t, url, "X-Amz-Expires=900")
	require.Contains(t, url, "X-Amz-Signature=")
}

func TestStore_Delete(t *testing.T) {
	objs := &fakeObjects{}
	st, err := newStore(nil, objs, "claim-docs")
	require.NoError(t, err)

	require.NoError(t, st.Delete(context.Background(), "users/u1/documents/d1/report.pdf"))
	require.Equal(t, "claim-docs", aws.ToString(objs.lastDelete.Bucket))
	require.Equal(t, "users/u1/documents/d1/report.pdf", aws.ToString(objs.lastDelete.Key))

	objs.err = errors.New("access denied")
	err = st.Delete(context.Background(), "k")
	require.ErrorContains(t, err, "access denied")
}

func TestStore_Exists(t *testing.T) {
	objs := &fakeObjects{}
	st, err := newStore(nil, objs, "claim-docs")
	require.NoError(t, err)

	ok, err := st.Exists(context.Background(), "users/u1/documents/d1/report.pdf")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "claim-docs", aws.ToString(objs.lastHead.Bucket))
	require.Equal(t, "users/u1/documents/d1/report.pdf", aws.ToString(objs.lastHead.Key))

	objs.headErr = fmt.Errorf("operation error S3: HeadObject: %w", &types.NotFound{})
	ok, err = st.Exists(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)

	objs.headErr = errors.New("access denied")
	_, err = st.Exists(context.Background(), "k")
	require.ErrorContains(t, err, "access denied")
}
