package identity

import (
	"crypto/subtle"
	"strings"
)

// DeviceAuthenticator checks shared device secrets. With no secrets configured every
// device is rejected.
type DeviceAuthenticator struct {
	secrets [][]byte
}

// NewDeviceAuthenticator accepts secrets as configured, e.g. split from a comma list.
// Blank entries are ignored.
func NewDeviceAuthenticator(secrets []string) *DeviceAuthenticator {
	d := &DeviceAuthenticator{}
	for _, s := range secrets {
		if s = strings.TrimSpace(s); s != "" {
			d.secrets = append(d.secrets, []byte(s))
		}
	}
	return d
}

func (d *DeviceAuthenticator) Enabled() bool { return len(d.secrets) > 0 }

// Authenticate compares secret against every configured secret without short-circuiting.
func (d *DeviceAuthenticator) Authenticate(secret string) bool {
	if secret == "" {
		return false
	}
	given := []byte(secret)
	match := 0
	for _, s := range d.secrets {
		match |= subtle.ConstantTimeCompare(given, s)
	}
	return match == 1
}
