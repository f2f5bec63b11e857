package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/pkg/apperr"
	"github.com/d60-Lab/pinboard/pkg/logger"
)

// ImageFetcher 从远程地址下载图片
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

var errForbiddenAddress = errors.New("destination address is not allowed")

type httpFetcher struct {
	client       *http.Client
	maxBytes     int64
	allowPrivate bool
}

type FetcherOption func(*httpFetcher)

// AllowPrivateAddresses 允许连接回环与内网地址，只用于测试
func AllowPrivateAddresses() FetcherOption {
	return func(f *httpFetcher) { f.allowPrivate = true }
}

// NewImageFetcher 默认拒绝连接回环、内网、链路本地地址。
// 检查发生在 DNS 解析之后的拨号阶段，重定向同样受限。
func NewImageFetcher(timeout time.Duration, maxBytes int64, opts ...FetcherOption) ImageFetcher {
	f := &httpFetcher{maxBytes: maxBytes}
	for _, o := range opts {
		o(f)
	}
	dialer := &net.Dialer{Timeout: timeout}
	if !f.allowPrivate {
		dialer.Control = publicOnly
	}
	f.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
		},
	}
	return f
}

func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return errForbiddenAddress
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", errForbiddenAddress, host)
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast())
}

func (f *httpFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperr.InvalidInput("image url must be an absolute http(s) url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperr.InvalidInput("invalid image url")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, errForbiddenAddress) {
			logger.Warn("image fetch blocked", zap.String("url", rawURL), zap.Error(err))
			return nil, apperr.InvalidInput("image url points to a forbidden address")
		}
		logger.Warn("image fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil, apperr.InvalidInput("could not download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.InvalidInput(fmt.Sprintf("image url returned status %d", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, apperr.InvalidInput("could not download image")
	}
	if int64(len(data)) > f.maxBytes {
		return nil, apperr.InvalidInput("image is too large")
	}
	if _, err := DetectImage(data); err != nil {
		return nil, err
	}
	return data, nil
}
