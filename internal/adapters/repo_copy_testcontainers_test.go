//go:build integration

package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"avular-packages/internal/core"
	"avular-packages/internal/types"
)

// TestContentAddressedRepo_ServedByContainerizedObjectStore puts a
// package object into a repository root, then asks a containerized
// HTTP server (scripted in-place, following
// tests/integration/proget_upload_testcontainers_test.go's
// artifactServerScript shape of writing the expected file content
// from Go-side data rather than bind-mounting a host path) to serve a
// manifest.json with the same content hash, and fetches it back over
// the network to confirm the addressed layout round-trips through a
// real HTTP transport.
func TestContentAddressedRepo_ServedByContainerizedObjectStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration test in short mode")
	}

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "bin"), []byte("binary"), 0o644))
	pkg := core.WithContentHash(types.Package{Name: "app", Version: "1.0.0"})

	repo := NewContentAddressedRepo(t.TempDir())
	_, err := repo.Put(pkg, srcDir, nil)
	require.NoError(t, err)
	manifest, err := repo.Manifest(pkg.ContentHash)
	require.NoError(t, err)
	manifestData, err := json.Marshal(manifest)
	require.NoError(t, err)

	ctx := context.Background()
	script := fmt.Sprintf(`
import os
from http.server import BaseHTTPRequestHandler, ThreadingHTTPServer

manifest = %q

class Handler(BaseHTTPRequestHandler):
    def do_GET(self):
        self.send_response(200)
        self.send_header("Content-Type", "application/json")
        self.end_headers()
        self.wfile.write(manifest.encode("utf-8"))

    def log_message(self, format, *args):
        return

ThreadingHTTPServer(("0.0.0.0", 8082), Handler).serve_forever()
`, string(manifestData))

	req := testcontainers.ContainerRequest{
		Image:        "python:3.12-alpine",
		ExposedPorts: []string{"8082/tcp"},
		Cmd:          []string{"python", "-c", script},
		WaitingFor:   wait.ForListeningPort("8082/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8082/tcp")
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("http://%s:%s/manifest.json", host, port.Port()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var fetched objectManifest
	require.NoError(t, json.Unmarshal(body, &fetched))
	require.Equal(t, manifest.ContentHash, fetched.ContentHash)
	require.Equal(t, manifest.Name, fetched.Name)
}
