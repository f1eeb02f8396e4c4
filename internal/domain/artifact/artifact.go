// Package artifact holds generated study content (quizzes, summaries,
// homework help) produced after a successful consume.
package artifact

import (
	"time"

	"github.com/fonta-cloud/studymeter/internal/domain"
)

// Artifact is one piece of generated study content owned by a user.
type Artifact struct {
	id        string
	userID    string
	feature   domain.Feature
	material  string
	content   string
	createdAt time.Time
}

// New creates an artifact.
func New(id, userID string, f domain.Feature, material, content string, createdAt time.Time) Artifact {
	return Artifact{
		id:        id,
		userID:    userID,
		feature:   f,
		material:  material,
		content:   content,
		createdAt: createdAt.UTC(),
	}
}

// ID returns the artifact id.
func (a Artifact) ID() string { return a.id }

// UserID returns the owning user id.
func (a Artifact) UserID() string { return a.userID }

// Feature returns the feature that produced the artifact.
func (a Artifact) Feature() domain.Feature { return a.feature }

// Material returns the source material the content was generated from.
func (a Artifact) Material() string { return a.material }

// Content returns the generated content.
func (a Artifact) Content() string { return a.content }

// CreatedAt returns the creation instant (UTC).
func (a Artifact) CreatedAt() time.Time { return a.createdAt }
