package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

type fakeObjectAPI struct {
	puts []*awss3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, params)
	f.body, _ = io.ReadAll(params.Body)
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error) {
	return &awss3.HeadBucketOutput{}, nil
}

func TestPutWritesPublicObject(t *testing.T) {
	api := &fakeObjectAPI{}
	client := newWithAPI(api, config.S3Config{Bucket: "budgets", Region: "sa-east-1"})

	obj, err := client.Put(context.Background(), "vidrobox/budgets/abc/orcamento-1.pdf", []byte("%PDF"), storage.PutOptions{ContentType: "application/pdf", Public: true})
	require.NoError(t, err)
	require.Equal(t, "https://budgets.s3.sa-east-1.amazonaws.com/vidrobox/budgets/abc/orcamento-1.pdf", obj.URL)
	require.Len(t, api.puts, 1)
	require.Equal(t, types.ObjectCannedACLPublicRead, api.puts[0].ACL)
	require.Equal(t, "application/pdf", aws.ToString(api.puts[0].ContentType))
	require.Equal(t, []byte("%PDF"), api.body)
}

func TestPutHonorsEndpointAndSkipACL(t *testing.T) {
	api := &fakeObjectAPI{}
	client := newWithAPI(api, config.S3Config{Bucket: "budgets", Endpoint: "http://minio:9000/", SkipACL: true})

	obj, err := client.Put(context.Background(), "k.pdf", nil, storage.PutOptions{Public: true})
	require.NoError(t, err)
	require.Equal(t, "http://minio:9000/budgets/k.pdf", obj.URL)
	require.Empty(t, api.puts[0].ACL)
	require.Equal(t, "application/octet-stream", aws.ToString(api.puts[0].ContentType))
}

func TestPutPrefersPublicBaseURL(t *testing.T) {
	client := newWithAPI(&fakeObjectAPI{}, config.S3Config{Bucket: "b", PublicBaseURL: "https://files.vidrobox.com.br/"})
	obj, err := client.Put(context.Background(), "a/b.pdf", nil, storage.PutOptions{})
	require.NoError(t, err)
	require.Equal(t, "https://files.vidrobox.com.br/a/b.pdf", obj.URL)
}

func TestPutWrapsErrors(t *testing.T) {
	client := newWithAPI(&fakeObjectAPI{err: errors.New("denied")}, config.S3Config{Bucket: "b"})
	_, err := client.Put(context.Background(), "k", nil, storage.PutOptions{})
	require.ErrorContains(t, err, "denied")
}
