// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import "errors"

var (
	// ErrInvalidArgument reports a nil reader/writer or a nil value passed
	// where a value was required.
	ErrInvalidArgument = errors.New("wire: invalid argument")

	// ErrTooLong reports that a frame's size exceeds the configured read
	// limit or the 32-bit size-prefix range.
	ErrTooLong = errors.New("wire: message too long")

	// ErrInvalidTypeEncountered reports that a local (in-process) read could
	// not downcast the boxed value it received to the expected type.
	ErrInvalidTypeEncountered = errors.New("wire: invalid type encountered")
)
