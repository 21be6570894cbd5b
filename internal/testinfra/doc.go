// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Package testinfra provides container-backed infrastructure for integration
// tests. Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/database/postgres/...
//
// NewPostgresContainer starts a disposable PostgreSQL server with
// testcontainers-go. Tests call SkipIfNoDocker first so the suite degrades
// gracefully on machines without Docker.
package testinfra
