// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package qr builds the validation links guests carry and renders them as
// QR codes.
package qr

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// ValidatePath prefixes the token in every validation link.
const ValidatePath = "/invite/validate/"

const DefaultSize = 256

// ValidationURL returns <base>/invite/validate/<token>. An empty base yields
// a host relative path.
func ValidationURL(base, token string) string {
	return strings.TrimSuffix(base, "/") + ValidatePath + url.PathEscape(token)
}

// PNG encodes content as a QR code image with size pixels per side.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return q.PNG(size)
}

// Terminal renders content as block characters for a text console.
func Terminal(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return q.ToSmallString(false), nil
}
