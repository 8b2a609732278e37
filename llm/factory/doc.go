// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package factory maps provider names to constructors and builds the
// decorated provider registry from a loaded config.
package factory
