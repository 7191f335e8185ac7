// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package attendance

import (
	"net/url"
	"strings"

	"github.com/quixsi/checkin/internal/qr"
)

// NormalizeToken extracts the guest token from a scanned payload. The payload
// is either the bare token or a full validation link such as
// https://host/invite/validate/ABC123.
func NormalizeToken(payload string) string {
	token := strings.TrimSpace(payload)
	i := strings.LastIndex(token, qr.ValidatePath)
	if i < 0 {
		return token
	}
	token = token[i+len(qr.ValidatePath):]
	if j := strings.IndexAny(token, "?#"); j >= 0 {
		token = token[:j]
	}
	token = strings.TrimSuffix(token, "/")
	if unescaped, err := url.PathUnescape(token); err == nil {
		token = unescaped
	}
	return token
}
