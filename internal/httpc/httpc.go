package httpc

import (
	"crypto/tls"
	"time"

	"github.com/go-resty/resty/v2"
)

// Httpc builds the HTTP client used to fetch remote manifests.
type Httpc struct {
	TLSConfig *tls.Config
	// Insecure skips certificate verification.
	Insecure bool
	Timeout  time.Duration
}

// New returns a resty.Client configured according to the receiver's TLS and timeout settings.
// Defaults: MinVersion TLS1.3 when a TLS config is given with MinVersion zero.
func (h *Httpc) New() *resty.Client {
	c := resty.New()
	if h == nil {
		return c
	}
	if h.Timeout > 0 {
		c.SetTimeout(h.Timeout)
	}
	cfg := h.TLSConfig
	if cfg == nil && !h.Insecure {
		return c
	}
	if cfg == nil {
		cfg = &tls.Config{}
	} else {
		cfg = cfg.Clone()
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS13
	}
	if h.Insecure {
		cfg.InsecureSkipVerify = true // #nosec G402 -- opt-in for self-signed manifest hosts
	}
	c.SetTLSClientConfig(cfg)
	return c
}
