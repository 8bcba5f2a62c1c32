package cryptopay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign подпись тела вебхука: HMAC-SHA256(body) с ключом SHA256(token)
func Sign(token string, body []byte) string {
	secret := sha256.Sum256([]byte(token))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureVerifier проверяет заголовок crypto-pay-api-signature
type SignatureVerifier struct {
	token string
}

func NewSignatureVerifier(token string) *SignatureVerifier {
	return &SignatureVerifier{token: token}
}

func (v *SignatureVerifier) Verify(body []byte, signature string) bool {
	signature = strings.ToLower(strings.TrimSpace(signature))
	if signature == "" {
		return false
	}
	expected := Sign(v.token, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
