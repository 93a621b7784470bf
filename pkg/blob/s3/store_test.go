package s3

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"NoSuchKey", &types.NoSuchKey{}, true},
		{"NotFound", &types.NotFound{}, true},
		{"WrappedNotFound", fmt.Errorf("head: %w", &types.NotFound{}), true},
		{"GenericAPI404", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"AccessDenied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"Plain", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFoundError(tt.err))
		})
	}
}

func TestNewFromConfigRequiresBucket(t *testing.T) {
	_, err := NewFromConfig(context.Background(), Config{})
	assert.Error(t, err)
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s, err := NewFromConfig(ctx, Config{
		Bucket:          "my-bucket",
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        "http://127.0.0.1:1",
	})
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", s.Bucket())
	require.NoError(t, s.Close())

	_, err = s.ListObjects(ctx, "posts/")
	assert.ErrorIs(t, err, blob.ErrStoreClosed)
	_, err = s.ObjectExists(ctx, "posts/a.jpg")
	assert.ErrorIs(t, err, blob.ErrStoreClosed)
	assert.ErrorIs(t, s.DeleteObject(ctx, "posts/a.jpg"), blob.ErrStoreClosed)
	assert.ErrorIs(t, s.HealthCheck(ctx), blob.ErrStoreClosed)
}
