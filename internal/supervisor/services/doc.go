// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Package services adapts covera components to suture.Service.
//
// HTTPService turns the blocking ListenAndServe/Shutdown pair into a
// context-aware Serve. TrainingService drives the recommendation engine's
// training schedule, and InstrumentedTrainer records Prometheus metrics for
// every run no matter who triggered it.
package services
