// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package handler defines the application-facing contracts for registering
// and running a typed handler: Identifier names it, SendBuilder/Initiator
// drive the outgoing side, ReceiveBuilder/Receiver drive the incoming side.
package handler
