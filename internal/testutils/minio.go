//go:build integration

package testutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/s3blob"
)

const (
	storeUser     = "placebounds"
	storePassword = "placebounds-secret"
)

// ObjectStore is a throwaway S3-compatible bucket for publish tests.
type ObjectStore struct {
	// URL opens the bucket through gocloud.
	URL    string
	Bucket string
}

// StartObjectStore runs a minio container holding an empty bucket. The
// container is terminated when the test finishes. AWS credentials for
// the store are exported into the test environment.
func StartObjectStore(t *testing.T, ctx context.Context, bucket string) *ObjectStore {
	t.Helper()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     storeUser,
				"MINIO_ROOT_PASSWORD": storePassword,
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start minio: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate minio: %v", err)
		}
	})

	mustExec(t, ctx, c, "mc", "alias", "set", "local", "http://127.0.0.1:9000", storeUser, storePassword)
	mustExec(t, ctx, c, "mc", "mb", "local/"+bucket)

	endpoint, err := c.PortEndpoint(ctx, "9000/tcp", "http")
	if err != nil {
		t.Fatalf("minio endpoint: %v", err)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", storeUser)
	t.Setenv("AWS_SECRET_ACCESS_KEY", storePassword)

	return &ObjectStore{
		URL:    fmt.Sprintf("s3://%s?endpoint=%s&use_path_style=true&disable_https=true&region=us-east-1", bucket, endpoint),
		Bucket: bucket,
	}
}

// Open opens the bucket and closes it when the test finishes.
func (s *ObjectStore) Open(t *testing.T, ctx context.Context) *blob.Bucket {
	t.Helper()
	bkt, err := blob.OpenBucket(ctx, s.URL)
	if err != nil {
		t.Fatalf("open %s: %v", s.Bucket, err)
	}
	t.Cleanup(func() { bkt.Close() })
	return bkt
}

// Keys lists the object keys stored under prefix.
func (s *ObjectStore) Keys(t *testing.T, ctx context.Context, prefix string) []string {
	t.Helper()
	bkt := s.Open(t, ctx)

	var keys []string
	iter := bkt.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			return keys
		}
		if err != nil {
			t.Fatalf("list %s: %v", prefix, err)
		}
		keys = append(keys, obj.Key)
	}
}

func mustExec(t *testing.T, ctx context.Context, c testcontainers.Container, cmd ...string) {
	t.Helper()
	code, out, err := c.Exec(ctx, cmd)
	if err != nil {
		t.Fatalf("exec %v: %v", cmd, err)
	}
	if code != 0 {
		msg, _ := io.ReadAll(out)
		t.Fatalf("exec %v: exit %d: %s", cmd, code, msg)
	}
}
