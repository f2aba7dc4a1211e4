// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package socketed

import (
	"crypto/sha256"
	"encoding/base64"
)

// fingerprintDER returns the base64url-encoded (unpadded) SHA-256 digest of
// a certificate's DER bytes, shared by Connection.Fingerprint and
// Endpoint.Fingerprint.
func fingerprintDER(der []byte) string {
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
