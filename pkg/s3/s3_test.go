package s3

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	headErr   error
	createErr error
	putErr    error
	created   bool
	objects   map[string][]byte
}

func (f *fakeS3) HeadBucket(*s3.HeadBucketInput) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) CreateBucket(*s3.CreateBucketInput) (*s3.CreateBucketOutput, error) {
	f.created = true
	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeS3) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.StringValue(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func TestPutJSON(t *testing.T) {
	api := &fakeS3{}
	client := NewWithAPI(api, "archive")

	err := client.PutJSON("notifications/user-1/1.json", map[string]string{"message": "hello"})
	require.NoError(t, err)

	var stored map[string]string
	require.NoError(t, json.Unmarshal(api.objects["notifications/user-1/1.json"], &stored))
	assert.Equal(t, "hello", stored["message"])
}

func TestPutJSON_Error(t *testing.T) {
	client := NewWithAPI(&fakeS3{putErr: errors.New("boom")}, "archive")

	err := client.PutJSON("key", map[string]string{})
	assert.Error(t, err)
}

func TestEnsureBucket(t *testing.T) {
	t.Run("existing bucket", func(t *testing.T) {
		api := &fakeS3{}
		require.NoError(t, NewWithAPI(api, "archive").ensureBucket())
		assert.False(t, api.created)
	})

	t.Run("missing bucket is created", func(t *testing.T) {
		api := &fakeS3{headErr: errors.New("not found")}
		require.NoError(t, NewWithAPI(api, "archive").ensureBucket())
		assert.True(t, api.created)
	})

	t.Run("already owned", func(t *testing.T) {
		api := &fakeS3{
			headErr:   errors.New("forbidden"),
			createErr: awserr.New(s3.ErrCodeBucketAlreadyOwnedByYou, "owned", nil),
		}
		assert.NoError(t, NewWithAPI(api, "archive").ensureBucket())
	})

	t.Run("create fails", func(t *testing.T) {
		api := &fakeS3{headErr: errors.New("not found"), createErr: errors.New("denied")}
		assert.Error(t, NewWithAPI(api, "archive").ensureBucket())
	})
}
