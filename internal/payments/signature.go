package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks header against HMAC-SHA256(rawBody, secret). The
// header is hex; comparison is constant time.
func VerifySignature(rawBody []byte, header, secret string) bool {
	header = strings.TrimSpace(header)
	if header == "" || secret == "" {
		return false
	}
	got, err := hex.DecodeString(header)
	if err != nil {
		return false
	}
	return hmac.Equal(got, Sign(rawBody, secret))
}

// Sign returns the raw HMAC-SHA256 of body.
func Sign(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignHex is Sign encoded the way providers send it in x-signature.
func SignHex(body []byte, secret string) string {
	return hex.EncodeToString(Sign(body, secret))
}
