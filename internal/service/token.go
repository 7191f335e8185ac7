// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package service

import (
	"crypto/rand"
	"encoding/hex"
)

// NewToken returns 128 random bits as lowercase hex. Guests carry the token in
// their QR code and invitation link.
func NewToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
