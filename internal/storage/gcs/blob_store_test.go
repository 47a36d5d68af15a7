package gcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "pages"})
	require.Error(t, err)
}

func TestOpenRequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket name is required")
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		prefix, dir, name, want string
	}{
		{"", "./pages/https:.example.com.a", "https:.example.com.a", "pages/https:.example.com.a/https:.example.com.a"},
		{"crawls", "./pages/story", "page", "crawls/pages/story/page"},
		{"crawls/", "/abs/story", "page", "crawls/abs/story/page"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ObjectName(tc.prefix, tc.dir, tc.name))
	}
}

func TestCloseNotOwned(t *testing.T) {
	t.Parallel()

	p := &Persister{}
	assert.NoError(t, p.Close())
}
