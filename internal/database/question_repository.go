package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// questionRepository implements the QuestionRepository interface.
type questionRepository struct {
	store *Store
}

// NewQuestionRepository creates a new question repository.
func NewQuestionRepository(store *Store) QuestionRepository {
	return &questionRepository{
		store: store,
	}
}

// FindAll retrieves the entire corpus with labels attached.
func (r *questionRepository) FindAll(ctx context.Context) ([]*Question, error) {
	query := `SELECT id, problem_name, problem_link, video_id, platform, difficulty,
			  solved, revise_count, last_attempted_at, created_at, updated_at
			  FROM questions ORDER BY id`

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]*Question, 0)
	byID := make(map[int64]*Question)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
		byID[q.ID] = q
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	if err := r.attachLabels(ctx, byID); err != nil {
		return nil, err
	}

	return questions, nil
}

// ExistsByProblemLink reports whether a question with the given problem link
// is already stored.
func (r *questionRepository) ExistsByProblemLink(ctx context.Context, link string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM questions WHERE problem_link = ?)`

	var exists bool
	if err := r.store.db.QueryRowContext(ctx, query, link).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check problem link: %w", err)
	}

	return exists, nil
}

// SaveAll inserts the given questions in one transaction and assigns their IDs.
func (r *questionRepository) SaveAll(ctx context.Context, questions []*Question) ([]*Question, error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuestion := `INSERT INTO questions (problem_name, problem_link, video_id, platform,
					   difficulty, solved, revise_count, last_attempted_at, created_at, updated_at)
					   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertLabel := `INSERT INTO question_labels (question_id, label_id) VALUES (?, ?)`

	now := time.Now().UTC()
	for _, q := range questions {
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		q.UpdatedAt = now

		result, err := tx.ExecContext(ctx, insertQuestion,
			q.ProblemName,
			q.ProblemLink,
			q.VideoID,
			q.Platform,
			string(q.Difficulty),
			q.Solved,
			q.ReviseCount,
			q.LastAttemptedAt,
			q.CreatedAt,
			q.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert question %q: %w", q.ProblemLink, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read question id: %w", err)
		}
		q.ID = id

		for _, label := range append(append([]*Label{}, q.Topics...), q.Patterns...) {
			if _, err := tx.ExecContext(ctx, insertLabel, q.ID, label.ID); err != nil {
				return nil, fmt.Errorf("failed to link label %q: %w", label.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit questions: %w", err)
	}

	return questions, nil
}

// Count returns the number of stored questions.
func (r *questionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// attachLabels loads the join rows for the given questions and distributes
// each label into its question's topic or pattern list by kind.
func (r *questionRepository) attachLabels(ctx context.Context, byID map[int64]*Question) error {
	if len(byID) == 0 {
		return nil
	}

	query := `SELECT ql.question_id, l.id, l.kind, l.name
			  FROM question_labels ql
			  JOIN labels l ON l.id = ql.label_id
			  ORDER BY ql.question_id, l.id`

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query question labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var questionID int64
		label := &Label{}
		if err := rows.Scan(&questionID, &label.ID, &label.Kind, &label.Name); err != nil {
			return fmt.Errorf("failed to scan question label: %w", err)
		}

		q, ok := byID[questionID]
		if !ok {
			continue
		}

		switch label.Kind {
		case KindTopic:
			q.Topics = append(q.Topics, label)
		case KindPattern:
			q.Patterns = append(q.Patterns, label)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating question labels: %w", err)
	}

	return nil
}

func scanQuestion(rows *sql.Rows) (*Question, error) {
	q := &Question{
		Topics:   make([]*Label, 0),
		Patterns: make([]*Label, 0),
	}

	var difficulty string
	var lastAttempted sql.NullTime
	err := rows.Scan(
		&q.ID,
		&q.ProblemName,
		&q.ProblemLink,
		&q.VideoID,
		&q.Platform,
		&difficulty,
		&q.Solved,
		&q.ReviseCount,
		&lastAttempted,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.Difficulty = Difficulty(difficulty)
	if lastAttempted.Valid {
		t := lastAttempted.Time
		q.LastAttemptedAt = &t
	}

	return q, nil
}
