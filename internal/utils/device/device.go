package device

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/user_agent"

	"github.com/nlct/pass-auth/internal/domain/models"
)

// FingerprintFromRequest derives the stored device description from an
// incoming request. The fingerprint is informational: it is shown back to
// the user on the trusted-device list, not used for matching.
func FingerprintFromRequest(r *http.Request) models.DeviceFingerprint {
	ua := user_agent.New(r.UserAgent())

	browser, version := ua.Browser()
	if browser != "" && version != "" {
		browser = browser + " " + version
	}

	return models.DeviceFingerprint{
		Platform: ua.OS(),
		Browser:  browser,
		IP:       ClientIP(r),
	}
}

// ClientIP resolves the originating address, preferring the first entry of
// X-Forwarded-For when the portal runs behind a proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Describe renders a fingerprint for notification emails.
func Describe(fp models.DeviceFingerprint) string {
	var b strings.Builder
	if fp.Browser != "" {
		b.WriteString(fp.Browser)
	}
	if fp.Platform != "" {
		if b.Len() > 0 {
			b.WriteString(" on ")
		}
		b.WriteString(fp.Platform)
	}
	if b.Len() == 0 {
		b.WriteString("an unrecognised device")
	}
	if fp.IP != "" {
		b.WriteString(" (IP ")
		b.WriteString(fp.IP)
		b.WriteString(")")
	}
	return b.String()
}
