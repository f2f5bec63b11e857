package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/pinboard/pkg/apperr"
)

func TestImageFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(pngBytes)
		case "/page":
			_, _ = w.Write([]byte("<html><body>not an image</body></html>"))
		case "/big.png":
			_, _ = w.Write(append(append([]byte{}, pngBytes...), make([]byte, 1024)...))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewImageFetcher(time.Second, 512, AllowPrivateAddresses())
	ctx := context.Background()

	data, err := f.Fetch(ctx, srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	for _, path := range []string{"/page", "/big.png", "/missing"} {
		_, err := f.Fetch(ctx, srv.URL+path)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err), path)
	}

	_, err = f.Fetch(ctx, "ftp://example.com/x.png")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestImageFetcher_RejectsInternalAddresses(t *testing.T) {
	var hits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write(pngBytes)
	}))
	defer internal.Close()

	f := NewImageFetcher(time.Second, 1<<20)
	ctx := context.Background()

	_, err := f.Fetch(ctx, internal.URL+"/admin.png")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	_, err = f.Fetch(ctx, fmt.Sprintf("http://localhost:%d/admin.png", internal.Listener.Addr().(*net.TCPAddr).Port))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Zero(t, hits.Load())
}

func TestPublicOnly(t *testing.T) {
	blocked := []string{
		"127.0.0.1:80", "[::1]:443", "10.1.2.3:80", "172.16.0.1:80", "192.168.1.1:80",
		"169.254.169.254:80", "0.0.0.0:80", "[::]:80", "[fe80::1]:80", "[fc00::1]:80",
		"[::ffff:127.0.0.1]:80", "224.0.0.1:80", "not-an-address",
	}
	for _, addr := range blocked {
		err := publicOnly("tcp", addr, nil)
		assert.True(t, errors.Is(err, errForbiddenAddress), addr)
	}
	for _, addr := range []string{"93.184.216.34:80", "[2606:4700::1111]:443"} {
		assert.NoError(t, publicOnly("tcp", addr, nil), addr)
	}
	assert.True(t, isPublicIP(net.ParseIP("8.8.8.8")))
}
