// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

/*
Package supervisor runs the long-lived covera services under suture v4.

The tree has two layers:

	covera
	├── model-layer
	│   └── TrainingService  (train on startup, retrain every interval)
	└── api-layer
	    └── HTTPService

A crashed service is restarted with backoff. The layers are isolated, so a
failing training loop never stops the HTTP server from answering with the
last published model.

Suture events are logged through sutureslog, fed by the zerolog slog
adapter in internal/logging:

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddModelService(services.NewTrainingService(trainer, cfg, logger))
	tree.AddAPIService(services.NewHTTPService(srv, addr, timeout, logger))
	err = tree.Serve(ctx)

The service implementations live in the services subpackage.
*/
package supervisor
