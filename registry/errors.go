// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry

import "errors"

var (
	// ErrNoSuchRegistration reports that no identifier matching a lookup was
	// ever registered.
	ErrNoSuchRegistration = errors.New("registry: no such registration")

	// ErrRegistrationTypeMismatch reports that an identifier was found but
	// its registered send/recv types do not match the type requested by a
	// typed Get.
	ErrRegistrationTypeMismatch = errors.New("registry: registration type mismatch")

	// ErrDuplicateIdentifier reports a Register call for an id already in
	// the map.
	ErrDuplicateIdentifier = errors.New("registry: duplicate identifier")

	// ErrSealed reports a Register call after the registry has been sealed
	// (the endpoint has started accepting connections).
	ErrSealed = errors.New("registry: sealed")
)
