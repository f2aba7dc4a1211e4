// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package socketed

import "errors"

var (
	// ErrEndpointDropped reports that a Connection's owning Endpoint has
	// already been garbage collected; its weak reference can no longer be
	// resolved. A pump that observes this returns it and stops; the
	// connection's task group logs it like any other task failure unless
	// the task's context has already been cancelled.
	ErrEndpointDropped = errors.New("socketed: endpoint dropped")

	// ErrConnectionDropped reports that a weak.Pointer[Connection] could not
	// be upgraded: the Connection it named has already been garbage
	// collected. Resolve returns this instead of a bare nil so callers that
	// hold on to a weak.Pointer across an Event have a sentinel to compare
	// against, the same way ErrEndpointDropped covers the Connection side
	// of the same weak-reference pattern.
	ErrConnectionDropped = errors.New("socketed: connection dropped")

	// ErrConnectionClosed reports an open/send attempt against a Connection
	// whose state has already advanced to Closed.
	ErrConnectionClosed = errors.New("socketed: connection closed")

	// ErrNoIdentity reports that PeerIdentity returned nil: a Remote
	// connection whose handshake carried no peer certificate, or a Local
	// connection whose owning Endpoint has already been dropped.
	ErrNoIdentity = errors.New("socketed: no peer identity")

	// ErrIdentityIsNotCertificate reports that PeerIdentity held a value
	// Certificate did not know how to parse as an X.509 certificate.
	ErrIdentityIsNotCertificate = errors.New("socketed: identity is not a certificate")

	// ErrCertificateIdentityIsEmpty reports a present but empty certificate
	// chain.
	ErrCertificateIdentityIsEmpty = errors.New("socketed: certificate chain is empty")

	// ErrKindVariantMismatch reports a byte-oriented send against a Local
	// connection, or any other call whose stream kind and connection
	// variant (Remote vs. Local) disagree.
	ErrKindVariantMismatch = errors.New("socketed: stream kind and connection variant disagree")
)
