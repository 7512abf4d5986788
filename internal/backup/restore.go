package backup

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"grindvault/internal/database"
)

// RestoreResult reports how many incoming questions were new versus
// skipped as duplicates of the live store.
type RestoreResult struct {
	Created int
	Skipped int
}

// Message renders the operator-facing outcome string.
func (r *RestoreResult) Message() string {
	return fmt.Sprintf("Restored %d new questions successfully (%d skipped as duplicates)",
		r.Created, r.Skipped)
}

// Restore merges a snapshot payload into the live store. Questions whose
// problem link already exists are skipped, so replaying a snapshot is
// idempotent. Labels are resolved by lower-cased name against the live
// store, creating each missing name exactly once per run. New questions
// are persisted in a single batch after all input is processed; decoding
// failures happen before any write.
func (s *Service) Restore(ctx context.Context, data []byte) (*RestoreResult, error) {
	incoming, err := DecodeSnapshot(data)
	if err != nil {
		s.metrics.ObserveRestore("failure", 0)
		return nil, err
	}

	topicCache, err := s.loadLabelCache(ctx, database.KindTopic)
	if err != nil {
		s.metrics.ObserveRestore("failure", 0)
		return nil, err
	}
	patternCache, err := s.loadLabelCache(ctx, database.KindPattern)
	if err != nil {
		s.metrics.ObserveRestore("failure", 0)
		return nil, err
	}

	result := &RestoreResult{}
	staged := make([]*database.Question, 0, len(incoming))

	for _, in := range incoming {
		exists, err := s.questions.ExistsByProblemLink(ctx, in.ProblemLink)
		if err != nil {
			s.metrics.ObserveRestore("failure", 0)
			return nil, fmt.Errorf("failed to check for duplicate %q: %w", in.ProblemLink, err)
		}
		if exists {
			result.Skipped++
			continue
		}

		topics, err := s.resolveLabels(ctx, topicCache, database.KindTopic, in.Topics)
		if err != nil {
			s.metrics.ObserveRestore("failure", 0)
			return nil, err
		}
		patterns, err := s.resolveLabels(ctx, patternCache, database.KindPattern, in.Patterns)
		if err != nil {
			s.metrics.ObserveRestore("failure", 0)
			return nil, err
		}

		// Rebuild the question instead of reusing the incoming one: the
		// snapshot's IDs belong to the source system, the live store
		// assigns its own.
		staged = append(staged, &database.Question{
			ProblemName:     in.ProblemName,
			ProblemLink:     in.ProblemLink,
			VideoID:         in.VideoID,
			Platform:        in.Platform,
			Difficulty:      in.Difficulty,
			Solved:          in.Solved,
			ReviseCount:     in.ReviseCount,
			Topics:          topics,
			Patterns:        patterns,
			LastAttemptedAt: in.LastAttemptedAt,
		})
	}

	if len(staged) > 0 {
		if _, err := s.questions.SaveAll(ctx, staged); err != nil {
			s.metrics.ObserveRestore("failure", 0)
			return nil, fmt.Errorf("failed to persist restored questions: %w", err)
		}
	}
	result.Created = len(staged)

	s.logger.Info("Restore success",
		zap.Int("new_records", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	s.metrics.ObserveRestore("success", result.Created)

	return result, nil
}

// loadLabelCache indexes the live store's labels of one kind by lower-cased
// name. When two existing labels collide after lowering, the first one wins;
// historical duplicates are not merged here.
func (s *Service) loadLabelCache(ctx context.Context, kind database.LabelKind) (map[string]*database.Label, error) {
	labels, err := s.labels.FindAllByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s cache: %w", kind, err)
	}

	cache := make(map[string]*database.Label, len(labels))
	for _, label := range labels {
		key := strings.ToLower(label.Name)
		if _, ok := cache[key]; !ok {
			cache[key] = label
		}
	}

	return cache, nil
}

// resolveLabels maps incoming label names onto live entities, creating
// missing ones immediately so later questions in the same run reuse them.
// The cache is scoped to one restore invocation.
func (s *Service) resolveLabels(ctx context.Context, cache map[string]*database.Label, kind database.LabelKind, incoming []*database.Label) ([]*database.Label, error) {
	resolved := make([]*database.Label, 0, len(incoming))
	for _, in := range incoming {
		key := strings.ToLower(in.Name)
		label, ok := cache[key]
		if !ok {
			created, err := s.labels.Save(ctx, kind, in.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to create %s %q: %w", kind, in.Name, err)
			}
			cache[key] = created
			label = created
		}
		resolved = append(resolved, label)
	}

	return resolved, nil
}
