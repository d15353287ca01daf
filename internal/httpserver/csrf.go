package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const csrfTokenTTL = 8 * time.Hour

// csrfSigner issues and checks double-submit tokens for the admin console.
// A token is bound to the staff user it was issued for, so a leaked token
// from one session is useless with another session's JWT.
type csrfSigner struct {
	secret []byte
}

func newCSRFSigner(secret string) *csrfSigner {
	return &csrfSigner{secret: []byte(secret)}
}

// issue returns "<expiry-unix>.<mac>" where the MAC covers subject and
// expiry.
func (s *csrfSigner) issue(subject string) string {
	exp := time.Now().Add(csrfTokenTTL).Unix()
	return fmt.Sprintf("%d.%s", exp, s.mac(subject, exp))
}

func (s *csrfSigner) verify(subject, token string) bool {
	expStr, mac, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return false
	}
	return hmac.Equal([]byte(mac), []byte(s.mac(subject, exp)))
}

func (s *csrfSigner) mac(subject string, exp int64) string {
	h := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(h, "%s:%d", subject, exp)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
