package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

// ArchiveServer serves TIGER-style archives at /tl_2020_<code>_place.zip.
type ArchiveServer struct {
	*httptest.Server

	archives map[string][]byte
	requests atomic.Int64
}

// URLTemplate returns the archive URL template for this server.
func (s *ArchiveServer) URLTemplate() string {
	return s.URL + "/tl_2020_{code}_place.zip"
}

// Requests returns the number of GET requests served.
func (s *ArchiveServer) Requests() int64 {
	return s.requests.Load()
}

// StartArchiveServer starts a server holding an archive of places for
// each code in archives.
func StartArchiveServer(t *testing.T, archives map[string][]Place) *ArchiveServer {
	t.Helper()

	s := &ArchiveServer{archives: make(map[string][]byte, len(archives))}
	for code, places := range archives {
		base := "tl_2020_" + code + "_place"
		s.archives["/"+base+".zip"] = PlaceArchive(t, base, places)
	}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := s.archives[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("ETag", fmt.Sprintf(`"%s"`, strings.TrimPrefix(r.URL.Path, "/")))
		if r.Method == http.MethodHead {
			return
		}
		s.requests.Add(1)
		w.Write(data)
	}))
	t.Cleanup(s.Close)

	return s
}
