package gateway

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dep2p/go-portmapper/pkg/types"
)

// NoPort 管理页面地址没有显式端口
const NoPort = -1

// parsePresentationURL 解析管理页面地址
//
// 只要求 scheme 非空；host 可以为空，显式端口必须是 0-65535 内的数字。
func parsePresentationURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrMalformedURL, raw)
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > types.MaxPort {
			return nil, fmt.Errorf("%w: bad port %q", ErrMalformedURL, p)
		}
	}
	return u, nil
}

// urlPort 返回显式端口，没有时返回 NoPort
func urlPort(u *url.URL) int {
	if p := u.Port(); p != "" {
		n, _ := strconv.Atoi(p)
		return n
	}
	return NoPort
}
