// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package registry is the type-erased map from handler identifier to
// registration. It is built once before an endpoint starts accepting
// connections, then shared by immutable reference across the endpoint and
// every connection and handler task it spawns.
package registry
