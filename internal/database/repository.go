package database

import (
	"context"
	"errors"
	"time"
)

// LabelKind discriminates the two reference-entity tables sharing one schema.
type LabelKind string

const (
	KindTopic   LabelKind = "topic"
	KindPattern LabelKind = "pattern"
)

// Difficulty is the question difficulty tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Label is a deduplicated, name-keyed lookup entity (topic or pattern)
// shared across many questions. Name is unique within its kind.
type Label struct {
	ID   int64     `json:"id"`
	Kind LabelKind `json:"-"`
	Name string    `json:"name"`
}

// Question is a tracked problem. ProblemLink is the natural key and is
// unique across the whole corpus.
type Question struct {
	ID              int64      `json:"id"`
	ProblemName     string     `json:"problemName"`
	ProblemLink     string     `json:"problemLink"`
	VideoID         string     `json:"videoId,omitempty"`
	Platform        string     `json:"platform,omitempty"`
	Difficulty      Difficulty `json:"difficulty,omitempty"`
	Solved          bool       `json:"solved"`
	ReviseCount     int        `json:"reviseCount"`
	Topics          []*Label   `json:"topics"`
	Patterns        []*Label   `json:"patterns"`
	LastAttemptedAt *time.Time `json:"lastAttemptedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

var (
	// ErrQuestionNotFound is returned when a question lookup matches nothing.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrLabelNotFound is returned when a label lookup matches nothing.
	ErrLabelNotFound = errors.New("label not found")
)

// QuestionRepository defines the question database operations consumed by
// the backup and restore paths.
type QuestionRepository interface {
	// FindAll retrieves the entire corpus with labels attached.
	FindAll(ctx context.Context) ([]*Question, error)

	// ExistsByProblemLink reports whether a question with the given
	// problem link is already stored.
	ExistsByProblemLink(ctx context.Context, link string) (bool, error)

	// SaveAll inserts the given questions in one transaction and assigns
	// their IDs. Label rows must already exist; only join rows are written.
	SaveAll(ctx context.Context, questions []*Question) ([]*Question, error)

	// Count returns the number of stored questions.
	Count(ctx context.Context) (int, error)
}

// LabelRepository defines the reference-entity database operations.
type LabelRepository interface {
	// FindAllByKind retrieves every label of one kind in insertion order.
	FindAllByKind(ctx context.Context, kind LabelKind) ([]*Label, error)

	// Save inserts a new label and assigns its ID. Idempotent creation is
	// the caller's responsibility; a duplicate name violates the schema.
	Save(ctx context.Context, kind LabelKind, name string) (*Label, error)
}
