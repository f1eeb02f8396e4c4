package study

import (
	"context"

	"github.com/fonta-cloud/studymeter/internal/domain"
	domartifact "github.com/fonta-cloud/studymeter/internal/domain/artifact"
	"github.com/fonta-cloud/studymeter/internal/usecase/usage"
)

// Generator produces study content from source material.
type Generator interface {
	GenerateQuiz(ctx context.Context, material string, questionCount int) (string, error)
	GenerateSummary(ctx context.Context, material string) (string, error)
	GenerateHomeworkHelp(ctx context.Context, problem string) (string, error)
}

// Engine gates feature invocations by usage quota.
type Engine interface {
	TryConsume(ctx context.Context, userID string, feature domain.Feature) (usage.Decision, error)
}

// Artifacts persists generated study content.
type Artifacts interface {
	Save(ctx context.Context, a domartifact.Artifact) error
	Get(ctx context.Context, userID, id string) (domartifact.Artifact, error)
	Delete(ctx context.Context, userID, id string) error
}
