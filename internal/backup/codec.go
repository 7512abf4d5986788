package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"grindvault/internal/database"
)

const (
	filePrefix = "questions_snapshot_"
	fileSuffix = ".json"

	// Fixed-width and lexicographically monotonic with real time, so that
	// name ordering equals chronological ordering. Minute resolution: two
	// cycles in the same minute collapse onto one remote file.
	timestampLayout = "2006-01-02_15-04"
)

var (
	// ErrEmptySnapshot is returned when a restore payload has no bytes.
	ErrEmptySnapshot = errors.New("snapshot is empty")

	// ErrMalformedSnapshot is returned when a payload is not a question array.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// EncodeSnapshot serializes the corpus to its canonical byte representation.
// Labels are embedded by name so a restore can rebuild them without the
// source system's internal IDs.
func EncodeSnapshot(questions []*database.Question) ([]byte, error) {
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot payload back into questions.
func DecodeSnapshot(data []byte) ([]*database.Question, error) {
	if len(data) == 0 {
		return nil, ErrEmptySnapshot
	}

	var questions []*database.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	return questions, nil
}

// SnapshotFileName builds the deterministic snapshot name for a point in time.
func SnapshotFileName(t time.Time) string {
	return filePrefix + t.Format(timestampLayout) + fileSuffix
}
