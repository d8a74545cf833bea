//go:build integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ligustah/placebounds/internal/publish"
	"github.com/ligustah/placebounds/internal/testutils"
)

func TestCLIIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	t.Log("Starting archive server...")
	env := newTestEnv(t)

	t.Log("Starting object store...")
	store := testutils.StartObjectStore(t, ctx, "placebounds-test")

	t.Run("generate", func(t *testing.T) {
		exitCode := run(append([]string{"generate"}, env.args(
			"-regions", "massachusetts",
			"-bucket", store.URL,
			"-bucket-prefix", "boundaries/",
		)...))
		if exitCode != ExitSuccess {
			t.Fatalf("generate failed with exit code %d", exitCode)
		}
	})

	t.Run("object", func(t *testing.T) {
		bkt := store.Open(t, ctx)

		local, err := os.Stat(filepath.Join(env.output, "massachusetts_boundaries.geojson"))
		if err != nil {
			t.Fatalf("stat output: %v", err)
		}

		attrs, err := bkt.Attributes(ctx, "boundaries/massachusetts_boundaries.geojson")
		if err != nil {
			t.Fatalf("attributes: %v", err)
		}
		if attrs.Size != local.Size() {
			t.Errorf("object size %d, local size %d", attrs.Size, local.Size())
		}
		if attrs.ContentType != publish.ContentType {
			t.Errorf("unexpected content type %q", attrs.ContentType)
		}
	})

	t.Run("keys", func(t *testing.T) {
		keys := store.Keys(t, ctx, "boundaries/")
		want := map[string]bool{
			"boundaries/massachusetts_boundaries.geojson": false,
			"boundaries/" + publish.ManifestName:          false,
		}
		for _, k := range keys {
			if _, ok := want[k]; ok {
				want[k] = true
			}
		}
		for k, found := range want {
			if !found {
				t.Errorf("missing object %s in %v", k, keys)
			}
		}
	})

	t.Run("publish_unchanged", func(t *testing.T) {
		exitCode := run(append([]string{"publish"}, env.args(
			"-regions", "massachusetts",
			"-bucket", store.URL,
			"-bucket-prefix", "boundaries/",
		)...))
		if exitCode != ExitSuccess {
			t.Fatalf("publish failed with exit code %d", exitCode)
		}
	})
}
