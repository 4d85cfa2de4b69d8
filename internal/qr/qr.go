package qr

import (
	"github.com/skip2/go-qrcode"
)

// Render encodes a member token as a 256x256 PNG. Pure function, no
// state: the token is an opaque secret, so the QR payload is the token
// itself and nothing else.
func Render(token string) ([]byte, error) {
	return qrcode.Encode(token, qrcode.Medium, 256)
}
