// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

// Options configures a Writer or Reader.
type Options struct {
	Codec Codec

	// ReadLimit caps the maximum allowed payload size, in bytes, that
	// ReadBytes/ReadValue will accept. Zero means no limit beyond the
	// 32-bit size-prefix range.
	ReadLimit uint32
}

var defaultOptions = Options{
	Codec:     DefaultCodec,
	ReadLimit: 0,
}

// Option mutates Options during Writer/Reader construction.
type Option func(*Options)

// WithCodec selects the Codec used by WriteValue/ReadValue for non-string
// payloads.
func WithCodec(c Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithReadLimit caps the accepted payload size for a Reader.
func WithReadLimit(limit uint32) Option {
	return func(o *Options) { o.ReadLimit = limit }
}

func resolve(opts []Option) Options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
