// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/covera/internal/metrics"
	"github.com/tomtom215/covera/internal/recommend"
)

// Trainer fits and publishes a new model. *recommend.Engine satisfies it.
type Trainer interface {
	Train(ctx context.Context) (*recommend.TrainingResult, error)
}

// InstrumentedTrainer records Prometheus metrics around every training run,
// whether triggered by the schedule or by the API.
type InstrumentedTrainer struct {
	next Trainer
	now  func() time.Time
}

// NewInstrumentedTrainer wraps next.
func NewInstrumentedTrainer(next Trainer) *InstrumentedTrainer {
	return &InstrumentedTrainer{next: next, now: time.Now}
}

// Train implements Trainer.
func (t *InstrumentedTrainer) Train(ctx context.Context) (*recommend.TrainingResult, error) {
	start := t.now()
	result, err := t.next.Train(ctx)
	elapsed := t.now().Sub(start)
	if err != nil {
		metrics.RecordTrainingFailure(err, metrics.IsAny(recommend.ErrTrainingInProgress), elapsed)
		return nil, err
	}
	metrics.RecordTrainingSuccess(metrics.TrainingSnapshot{
		ModelVersion: result.ModelVersion,
		Accuracy:     result.Accuracy,
		Evaluated:    result.Evaluated,
		DatasetRows:  result.DatasetRows,
		LabeledRows:  result.LabeledRows,
		TrainRows:    result.TrainRows,
		TestRows:     result.TestRows,
		Classes:      result.Classes,
		Customers:    result.Customers,
		TrainedAt:    result.TrainedAt,
	}, elapsed)
	return result, nil
}

// TrainingServiceConfig controls the training schedule.
type TrainingServiceConfig struct {
	// TrainOnStartup runs one training cycle as soon as the service starts.
	TrainOnStartup bool

	// Interval between scheduled runs. Zero disables scheduled retraining.
	Interval time.Duration
}

// TrainingService keeps the published model fresh under supervision.
// Failed runs are logged and retried at the next tick; the previous model
// keeps serving.
type TrainingService struct {
	trainer Trainer
	config  TrainingServiceConfig
	logger  zerolog.Logger
}

// NewTrainingService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(trainer Trainer, cfg TrainingServiceConfig, logger zerolog.Logger) *TrainingService {
	return &TrainingService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "training").Logger(),
	}
}

// Serve implements suture.Service.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("interval", s.config.Interval).
		Msg("training service starting")

	if s.config.TrainOnStartup {
		s.runOnce(ctx, "startup")
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx, "schedule")
		}
	}
}

func (s *TrainingService) runOnce(ctx context.Context, trigger string) {
	result, err := s.trainer.Train(ctx)
	switch {
	case err == nil:
		s.logger.Info().
			Str("trigger", trigger).
			Int("version", result.ModelVersion).
			Float64("accuracy", result.Accuracy).
			Msg("model refreshed")
	case errors.Is(err, recommend.ErrTrainingInProgress):
		s.logger.Debug().Str("trigger", trigger).Msg("training already running, skipped")
	case ctx.Err() != nil:
		// Shutting down.
	default:
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("training failed, keeping previous model")
	}
}

func (s *TrainingService) String() string {
	return "training-service"
}
