// Package security はパスワードハッシュと短縮対象URLの安全性検証を提供する。
package security

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// MaxLongURLLength は短縮対象URLの最大長。
const MaxLongURLLength = 2048

// allowedSchemes は短縮対象URLとして許可するスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks は短縮対象として受け付けないネットワーク範囲。
// 内部ネットワークへのリダイレクタとして悪用されることを防ぐ。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		// クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// URLGuard は短縮対象URLの検証を行う。
type URLGuard struct {
	probe  bool
	client *http.Client
}

// NewURLGuard はURLGuardを生成する。
// probeがtrueの場合、ValidateLongURLの後にProbeで到達性を確認する。
func NewURLGuard(probe bool, timeout time.Duration) *URLGuard {
	g := &URLGuard{probe: probe}
	if probe {
		g.client = newSafeClient(timeout)
	}
	return g
}

// newSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlはDialerのControlフックでDNS解決後のIPを検証するため、
// DNS再バインディングによる内部アドレスへの到達も防止される。
func newSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateLongURL は短縮対象URLを静的に検証する。DNS解決は行わない。
func (g *URLGuard) ValidateLongURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}
	if len(rawURL) > MaxLongURLLength {
		return fmt.Errorf("URL exceeds %d characters", MaxLongURLLength)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL")
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("scheme must be http or https")
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("missing host")
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("address %s is not allowed", ip.String())
		}
		return nil
	}

	if isBlockedHostname(host) {
		return fmt.Errorf("host %s is not allowed", host)
	}
	return nil
}

// ProbeEnabled は到達性確認が有効かを返す。
func (g *URLGuard) ProbeEnabled() bool {
	return g.probe
}

// Probe はHEADリクエストでURLの到達性を確認する。
// 応答が返れば（ステータスに関係なく）到達可能とみなす。
func (g *URLGuard) Probe(ctx context.Context, rawURL string) error {
	if !g.probe {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("malformed URL")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("host is unreachable")
	}
	resp.Body.Close()
	return nil
}

func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func isBlockedHostname(host string) bool {
	lower := strings.ToLower(strings.TrimSuffix(host, "."))
	return lower == "localhost" || strings.HasSuffix(lower, ".localhost")
}
