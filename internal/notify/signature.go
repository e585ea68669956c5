package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signatureScheme = "sha256="

// signPayload computes the X-Signature header value for a delivery body:
// the scheme prefix followed by lowercase hex HMAC-SHA256 under the
// endpoint's shared secret.
func signPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signatureScheme + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks an X-Signature header produced by signPayload.
// Receiving endpoints use it to authenticate plan notifications before
// acting on them.
func VerifySignature(secret string, body []byte, header string) bool {
	encoded, ok := strings.CutPrefix(header, signatureScheme)
	if !ok {
		return false
	}
	provided, err := hex.DecodeString(encoded)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}
