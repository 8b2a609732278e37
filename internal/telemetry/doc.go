// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package telemetry boots the OpenTelemetry SDK for the CLI: one Init
// call builds OTLP gRPC trace and metric pipelines, stamps the service
// resource (name, release version, instance id) and installs the
// result as the process-global providers consumed by llm/observability.
// Disabled config leaves the globals on their noop defaults.
package telemetry
