// ABOUTME: Tests for the TLS server bootstrap
// ABOUTME: Covers fatal startup modes and an end-to-end HTTPS round trip

package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-notes/inkwell/internal/auth"
	"github.com/inkwell-notes/inkwell/internal/config"
	"github.com/inkwell-notes/inkwell/internal/device"
)

// writeTLSDir generates a self-signed certificate for localhost and writes
// server.pem/server.key into a temp directory.
func writeTLSDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	certOut, err := os.Create(filepath.Join(dir, config.CertFileName))
	require.NoError(t, err)
	require.NoError(t, pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: certDER}))
	require.NoError(t, certOut.Close())

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	keyOut, err := os.Create(filepath.Join(dir, config.KeyFileName))
	require.NoError(t, err)
	require.NoError(t, pem.Encode(keyOut, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	require.NoError(t, keyOut.Close())

	return dir
}

func testServerConfig(t *testing.T, tlsDir string, port int) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: port},
		TLS:    config.TLSConfig{Dir: tlsDir},
	}
}

func emptyRegistry(t *testing.T) *device.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices")
	require.NoError(t, os.WriteFile(path, nil, 0600))
	reg, err := device.Load(path)
	require.NoError(t, err)
	return reg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_Start_MissingCredentials(t *testing.T) {
	cfg := testServerConfig(t, t.TempDir(), 0)
	srv := New(cfg, emptyRegistry(t), http.NotFoundHandler(), discardLogger())

	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS credentials")
}

func TestServer_Start_MalformedCredentials(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.CertFileName), []byte("not a cert"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.KeyFileName), []byte("not a key"), 0600))

	cfg := testServerConfig(t, dir, 0)
	srv := New(cfg, emptyRegistry(t), http.NotFoundHandler(), discardLogger())

	require.Error(t, srv.Start(context.Background()))
}

func TestServer_Start_PortAlreadyBound(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := testServerConfig(t, writeTLSDir(t), port)
	srv := New(cfg, emptyRegistry(t), http.NotFoundHandler(), discardLogger())

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binding port")
}

// startTestServer runs a server on an ephemeral port and returns its base
// URL plus an HTTPS client that trusts it.
func startTestServer(t *testing.T, handler http.Handler, deviceLines string) (string, *http.Client) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "devices")
	require.NoError(t, os.WriteFile(path, []byte(deviceLines), 0600))
	registry, err := device.Load(path)
	require.NoError(t, err)

	cfg := testServerConfig(t, writeTLSDir(t), 0)
	srv := New(cfg, registry, handler, discardLogger())
	require.NoError(t, srv.listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	return "https://127.0.0.1:" + port, client
}

func TestServer_EndToEnd(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		w.Write([]byte("ok " + identity))
	})
	base, client := startTestServer(t, handler, auth.Digest("secret123")+" laptop\n")

	// Missing token.
	resp, err := client.Get(base + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing access token", string(body))

	// Invalid token.
	resp, err = client.Get(base + "/?token=wrong")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid access token", string(body))

	// Valid token reaches the application handler.
	resp, err = client.Get(base + "/?token=secret123")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok laptop", string(body))
}
