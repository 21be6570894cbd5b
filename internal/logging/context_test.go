// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package logging

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	t.Parallel()

	id1 := GenerateRequestID()
	id2 := GenerateRequestID()

	if len(id1) != 36 {
		t.Errorf("len(GenerateRequestID()) = %d, want 36", len(id1))
	}
	if id1 == id2 {
		t.Error("GenerateRequestID() returned duplicate IDs")
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if id := RequestIDFromContext(ctx); id != "" {
		t.Errorf("RequestIDFromContext(empty) = %q, want empty", id)
	}

	ctx = ContextWithRequestID(ctx, "req-1")
	if id := RequestIDFromContext(ctx); id != "req-1" {
		t.Errorf("RequestIDFromContext() = %q, want req-1", id)
	}
}

func TestCtx_AddsRequestID(t *testing.T) {
	buf := captureGlobal(t, "info")

	ctx := ContextWithRequestID(context.Background(), "req-42")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-42"`, `"service":"covera"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestCtx_WithoutRequestID(t *testing.T) {
	buf := captureGlobal(t, "info")

	Ctx(context.Background()).Info().Msg("plain")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("output %s should not contain request_id", buf.String())
	}
}
