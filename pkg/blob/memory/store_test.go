package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob"
)

func TestStore_ListObjects(t *testing.T) {
	ctx := context.Background()
	s := New("posts/2-b.jpg", "posts/1-a.jpg", "avatars/x.png")
	defer s.Close()

	keys, err := s.ListObjects(ctx, "posts/")
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/1-a.jpg", "posts/2-b.jpg"}, keys)

	all, err := s.ListObjects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_ObjectExists(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Put("posts/1-a.jpg", []byte("jpeg"))

	ok, err := s.ObjectExists(ctx, "posts/1-a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ObjectExists(ctx, "posts/missing.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, s.ExistsCalls())
}

func TestStore_DeleteObject(t *testing.T) {
	ctx := context.Background()
	s := New("posts/1-a.jpg", "posts/2-b.jpg")

	require.NoError(t, s.DeleteObject(ctx, "posts/1-a.jpg"))
	require.NoError(t, s.DeleteObject(ctx, "posts/never.jpg"))
	assert.Equal(t, []string{"posts/2-b.jpg"}, s.Keys())
	assert.Equal(t, 2, s.DeleteCalls())

	assert.ErrorIs(t, s.DeleteObject(ctx, ""), blob.ErrInvalidKey)
}

func TestStore_FailDelete(t *testing.T) {
	ctx := context.Background()
	s := New("posts/1-a.jpg")
	boom := errors.New("permission denied")
	s.FailDelete("posts/1-a.jpg", boom)

	err := s.DeleteObject(ctx, "posts/1-a.jpg")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"posts/1-a.jpg"}, s.Keys())
}

func TestStore_FailList(t *testing.T) {
	s := New("posts/1-a.jpg")
	s.FailList(errors.New("unreachable"))

	_, err := s.ListObjects(context.Background(), "posts/")
	assert.Error(t, err)

	s.FailList(nil)
	keys, err := s.ListObjects(context.Background(), "posts/")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := New("posts/1-a.jpg")
	require.NoError(t, s.Close())

	_, err := s.ListObjects(ctx, "")
	assert.ErrorIs(t, err, blob.ErrStoreClosed)
	_, err = s.ObjectExists(ctx, "posts/1-a.jpg")
	assert.ErrorIs(t, err, blob.ErrStoreClosed)
	assert.ErrorIs(t, s.DeleteObject(ctx, "posts/1-a.jpg"), blob.ErrStoreClosed)
	assert.ErrorIs(t, s.HealthCheck(ctx), blob.ErrStoreClosed)
}
