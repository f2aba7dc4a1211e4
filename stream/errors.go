// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream

import "errors"

// ErrUnimplementedKind reports that the Incoming value did not hold the kind
// an Extractor expected. The registry turns this into a dropped stream with
// an error log rather than a panic.
var ErrUnimplementedKind = errors.New("stream: unimplemented kind")
