// Package study orchestrates content generation behind the usage engine:
// every generation first passes a consume decision, so denied users never
// reach the AI provider.
package study

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fonta-cloud/studymeter/internal/domain"
	domartifact "github.com/fonta-cloud/studymeter/internal/domain/artifact"
)

// DefaultQuestionCount is used when the caller does not ask for a
// specific quiz length.
const DefaultQuestionCount = 5

// Service generates quizzes, summaries and homework help, charging the
// usage engine before each generation.
type Service struct {
	engine    Engine
	generator Generator
	artifacts Artifacts
	clock     domain.Clock
	logger    *zap.Logger
}

// New creates a study service.
func New(engine Engine, generator Generator, artifacts Artifacts, clock domain.Clock, logger *zap.Logger) *Service {
	return &Service{
		engine:    engine,
		generator: generator,
		artifacts: artifacts,
		clock:     clock,
		logger:    logger,
	}
}

// GenerateQuiz produces a quiz from the material. questionCount <= 0
// falls back to DefaultQuestionCount.
func (s *Service) GenerateQuiz(ctx context.Context, userID, material string, questionCount int) (domartifact.Artifact, error) {
	if questionCount <= 0 {
		questionCount = DefaultQuestionCount
	}
	return s.generate(ctx, userID, domain.FeatureQuiz, material, func(ctx context.Context) (string, error) {
		return s.generator.GenerateQuiz(ctx, material, questionCount)
	})
}

// Summarize produces a summary of the material.
func (s *Service) Summarize(ctx context.Context, userID, material string) (domartifact.Artifact, error) {
	return s.generate(ctx, userID, domain.FeatureSummary, material, func(ctx context.Context) (string, error) {
		return s.generator.GenerateSummary(ctx, material)
	})
}

// HomeworkHelp produces step-by-step guidance for the problem.
func (s *Service) HomeworkHelp(ctx context.Context, userID, problem string) (domartifact.Artifact, error) {
	return s.generate(ctx, userID, domain.FeatureHomework, problem, func(ctx context.Context) (string, error) {
		return s.generator.GenerateHomeworkHelp(ctx, problem)
	})
}

// Artifact returns one of the user's previously generated artifacts.
func (s *Service) Artifact(ctx context.Context, userID, id string) (domartifact.Artifact, error) {
	if userID == "" {
		return domartifact.Artifact{}, domain.ErrInvalidUser
	}
	return s.artifacts.Get(ctx, userID, id)
}

// generate runs the consume-then-generate sequence shared by all
// features. The quota unit is spent before the provider call; a
// generation failure after that point does not refund it.
func (s *Service) generate(
	ctx context.Context,
	userID string,
	feature domain.Feature,
	material string,
	gen func(ctx context.Context) (string, error),
) (domartifact.Artifact, error) {
	if material == "" {
		return domartifact.Artifact{}, fmt.Errorf("%w: empty material", domain.ErrGenerationFailed)
	}

	decision, err := s.engine.TryConsume(ctx, userID, feature)
	if err != nil {
		return domartifact.Artifact{}, err
	}
	if !decision.Allowed {
		return domartifact.Artifact{}, decision.Reason
	}

	content, err := gen(ctx)
	if err != nil {
		s.logger.Error("generation failed after consume",
			zap.String("user_id", userID),
			zap.String("feature", string(feature)),
			zap.Error(err))
		return domartifact.Artifact{}, err
	}

	a := domartifact.New(uuid.NewString(), userID, feature, material, content, s.clock.Now())

	// Retention is best-effort: the content was generated and the
	// quota spent, so a failed write must not fail the request.
	if err := s.artifacts.Save(ctx, a); err != nil {
		s.logger.Warn("artifact not retained",
			zap.String("user_id", userID),
			zap.String("artifact_id", a.ID()),
			zap.Error(err))
	}

	return a, nil
}
