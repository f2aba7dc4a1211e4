// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package socketed

import (
	"crypto/tls"

	"github.com/quic-go/quic-go"
	"github.com/rs/zerolog"
)

// Role tags which half of a QUIC handshake a Config builds an Endpoint for.
type Role uint8

const (
	// RoleServer binds addr and accepts inbound connections.
	RoleServer Role = iota + 1

	// RoleClient binds addr (an ephemeral port is fine) and dials out.
	RoleClient
)

// Config is the role-tagged configuration an Endpoint is built from. Use
// NewServerConfig or NewClientConfig rather than constructing one directly.
type Config struct {
	role       Role
	addr       string
	cert       tls.Certificate
	tlsConfig  *tls.Config
	quicConfig *quic.Config
	logger     *zerolog.Logger
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithLogger overrides the zerolog.Logger an Endpoint and every Connection
// it owns log through. The default writes to stderr at info level.
func WithLogger(log *zerolog.Logger) Option {
	return func(c *Config) { c.logger = log }
}

// WithQUICConfig overrides quic-go's connection-level tuning (idle timeout,
// keep-alive, datagram support). socketed always forces EnableDatagrams,
// since the Datagram stream kind depends on it.
func WithQUICConfig(qc *quic.Config) Option {
	return func(c *Config) {
		if qc == nil {
			c.quicConfig = defaultQUICConfig()
			return
		}
		forced := *qc
		forced.EnableDatagrams = true
		c.quicConfig = &forced
	}
}

// NewServerConfig builds a Config that listens on addr and presents cert to
// peers. tlsConfig, if nil, is given a minimal default built around cert.
func NewServerConfig(addr string, cert tls.Certificate, tlsConfig *tls.Config, opts ...Option) Config {
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	tlsConfig = tlsConfig.Clone()
	tlsConfig.Certificates = []tls.Certificate{cert}
	if len(tlsConfig.NextProtos) == 0 {
		tlsConfig.NextProtos = []string{"socketed"}
	}

	cfg := Config{role: RoleServer, addr: addr, cert: cert, tlsConfig: tlsConfig, quicConfig: defaultQUICConfig()}
	for _, fn := range opts {
		fn(&cfg)
	}
	return cfg
}

// NewClientConfig builds a Config that binds addr (commonly ":0" for an
// ephemeral port) and dials out to peers, presenting cert as its own
// identity. tlsConfig, if nil, is given a minimal default around cert;
// InsecureSkipVerify is left to the caller, since socketed does not impose a
// trust model.
func NewClientConfig(addr string, cert tls.Certificate, tlsConfig *tls.Config, opts ...Option) Config {
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	tlsConfig = tlsConfig.Clone()
	tlsConfig.Certificates = []tls.Certificate{cert}
	if len(tlsConfig.NextProtos) == 0 {
		tlsConfig.NextProtos = []string{"socketed"}
	}

	cfg := Config{role: RoleClient, addr: addr, cert: cert, tlsConfig: tlsConfig, quicConfig: defaultQUICConfig()}
	for _, fn := range opts {
		fn(&cfg)
	}
	return cfg
}

func defaultQUICConfig() *quic.Config {
	return &quic.Config{EnableDatagrams: true}
}
