package publish

import (
	"context"
	"testing"

	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

func TestManifestRoundTrip(t *testing.T) {
	ctx := context.Background()
	bkt := memblob.OpenBucket(nil)
	defer bkt.Close()
	pub := New(bkt, "v1/")

	var results []Result
	for name, content := range map[string]string{
		"guam_boundaries.geojson": "guam",
		"iowa_boundaries.geojson": "iowa-iowa",
	} {
		res, err := pub.Publish(ctx, writeFile(t, name, content))
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}
		results = append(results, res)
	}

	m, err := pub.WriteManifest(ctx, results, map[string]string{"run_id": "test"})
	if err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	if len(m.Files) != 2 || m.TotalSize != 13 {
		t.Errorf("unexpected manifest %+v", m)
	}

	got, err := pub.ReadManifest(ctx)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if got.Metadata["run_id"] != "test" || len(got.Files) != 2 {
		t.Errorf("unexpected stored manifest %+v", got)
	}
	for _, fi := range got.Files {
		if fi.Object != "guam_boundaries.geojson" && fi.Object != "iowa_boundaries.geojson" {
			t.Errorf("object %q should be relative to the prefix", fi.Object)
		}
		if len(fi.Checksum) != 64 {
			t.Errorf("unexpected checksum %q", fi.Checksum)
		}
	}

	result, err := pub.Validate(ctx)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid || result.FileCount != 2 {
		t.Errorf("expected valid result, got %+v", result)
	}
}

func TestManifestMergesPreviousRuns(t *testing.T) {
	ctx := context.Background()
	bkt := memblob.OpenBucket(nil)
	defer bkt.Close()
	pub := New(bkt, "")

	a, err := pub.Publish(ctx, writeFile(t, "utah_boundaries.geojson", "utah"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pub.WriteManifest(ctx, []Result{a}, nil); err != nil {
		t.Fatal(err)
	}

	b, err := pub.Publish(ctx, writeFile(t, "guam_boundaries.geojson", "guam!"))
	if err != nil {
		t.Fatal(err)
	}
	m, err := pub.WriteManifest(ctx, []Result{b}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(m.Files) != 2 || m.Files[0].Object != "utah_boundaries.geojson" {
		t.Errorf("expected previous entries to be kept first, got %+v", m.Files)
	}
	if m.TotalSize != 9 {
		t.Errorf("expected total 9, got %d", m.TotalSize)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	ctx := context.Background()
	bkt := memblob.OpenBucket(nil)
	defer bkt.Close()
	pub := New(bkt, "")

	var results []Result
	for _, name := range []string{"guam_boundaries.geojson", "utah_boundaries.geojson", "ohio_boundaries.geojson"} {
		res, err := pub.Publish(ctx, writeFile(t, name, "12345"))
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, res)
	}
	if _, err := pub.WriteManifest(ctx, results, nil); err != nil {
		t.Fatal(err)
	}

	if err := bkt.Delete(ctx, "guam_boundaries.geojson"); err != nil {
		t.Fatal(err)
	}
	if err := bkt.WriteAll(ctx, "utah_boundaries.geojson", []byte("123"), nil); err != nil {
		t.Fatal(err)
	}
	if err := bkt.WriteAll(ctx, "ohio_boundaries.geojson", []byte("54321"), &blob.WriterOptions{
		Metadata: map[string]string{checksumKey: "0000"},
	}); err != nil {
		t.Fatal(err)
	}

	result, err := pub.Validate(ctx)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Error("expected invalid result")
	}
	if result.MissingFiles != 1 || result.SizeMismatches != 1 || result.ChecksumMismatches != 1 {
		t.Errorf("unexpected counts %+v", result)
	}
	if len(result.Errors) != 3 {
		t.Errorf("expected 3 errors, got %v", result.Errors)
	}
}

func TestValidateWithoutManifest(t *testing.T) {
	ctx := context.Background()
	bkt := memblob.OpenBucket(nil)
	defer bkt.Close()

	_, err := New(bkt, "").Validate(ctx)
	if gcerrors.Code(err) != gcerrors.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}
