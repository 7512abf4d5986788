package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(zaptest.NewLogger(t), Config{DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })

	return store
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(zaptest.NewLogger(t), Config{})
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate())
	require.NoError(t, store.Ping(context.Background()))
}

func TestLabelRepository(t *testing.T) {
	store := newTestStore(t)
	labels := NewLabelRepository(store)
	ctx := context.Background()

	arrays, err := labels.Save(ctx, KindTopic, "Arrays")
	require.NoError(t, err)
	assert.NotZero(t, arrays.ID)
	assert.Equal(t, KindTopic, arrays.Kind)
	assert.Equal(t, "Arrays", arrays.Name)

	_, err = labels.Save(ctx, KindTopic, "Graphs")
	require.NoError(t, err)
	sliding, err := labels.Save(ctx, KindPattern, "Sliding Window")
	require.NoError(t, err)

	topics, err := labels.FindAllByKind(ctx, KindTopic)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "Arrays", topics[0].Name)
	assert.Equal(t, "Graphs", topics[1].Name)

	patterns, err := labels.FindAllByKind(ctx, KindPattern)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, sliding.ID, patterns[0].ID)
}

func TestLabelRepositoryRejectsDuplicateName(t *testing.T) {
	store := newTestStore(t)
	labels := NewLabelRepository(store)
	ctx := context.Background()

	_, err := labels.Save(ctx, KindTopic, "Arrays")
	require.NoError(t, err)

	// Same name under the same kind violates the unique constraint.
	_, err = labels.Save(ctx, KindTopic, "Arrays")
	assert.Error(t, err)

	// The same name under the other kind is a different label.
	_, err = labels.Save(ctx, KindPattern, "Arrays")
	assert.NoError(t, err)
}

func TestQuestionRepositorySaveAndFind(t *testing.T) {
	store := newTestStore(t)
	questions := NewQuestionRepository(store)
	labels := NewLabelRepository(store)
	ctx := context.Background()

	arrays, err := labels.Save(ctx, KindTopic, "Arrays")
	require.NoError(t, err)
	hashing, err := labels.Save(ctx, KindTopic, "Hashing")
	require.NoError(t, err)
	twoPointers, err := labels.Save(ctx, KindPattern, "Two Pointers")
	require.NoError(t, err)

	attempted := time.Date(2025, 7, 15, 20, 30, 0, 0, time.UTC)
	saved, err := questions.SaveAll(ctx, []*Question{
		{
			ProblemName:     "Two Sum",
			ProblemLink:     "https://leetcode.com/problems/two-sum",
			VideoID:         "dQw4w9WgXcQ",
			Platform:        "leetcode",
			Difficulty:      DifficultyEasy,
			Solved:          true,
			ReviseCount:     2,
			Topics:          []*Label{arrays, hashing},
			Patterns:        []*Label{twoPointers},
			LastAttemptedAt: &attempted,
		},
		{
			ProblemName: "3Sum",
			ProblemLink: "https://leetcode.com/problems/3sum",
			Platform:    "leetcode",
			Difficulty:  DifficultyMedium,
			Topics:      []*Label{arrays},
		},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotZero(t, saved[0].ID)
	assert.NotZero(t, saved[1].ID)
	assert.False(t, saved[0].CreatedAt.IsZero())
	assert.False(t, saved[0].UpdatedAt.IsZero())

	found, err := questions.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, found, 2)

	first := found[0]
	assert.Equal(t, "Two Sum", first.ProblemName)
	assert.Equal(t, DifficultyEasy, first.Difficulty)
	assert.True(t, first.Solved)
	assert.Equal(t, 2, first.ReviseCount)
	require.NotNil(t, first.LastAttemptedAt)
	assert.True(t, attempted.Equal(*first.LastAttemptedAt))
	require.Len(t, first.Topics, 2)
	assert.Equal(t, KindTopic, first.Topics[0].Kind)
	require.Len(t, first.Patterns, 1)
	assert.Equal(t, "Two Pointers", first.Patterns[0].Name)

	second := found[1]
	assert.Equal(t, "3Sum", second.ProblemName)
	assert.Nil(t, second.LastAttemptedAt)
	require.Len(t, second.Topics, 1)
	assert.Empty(t, second.Patterns)
}

func TestQuestionRepositorySaveAllIsTransactional(t *testing.T) {
	store := newTestStore(t)
	questions := NewQuestionRepository(store)
	ctx := context.Background()

	// The second question reuses the first one's link, which fails the
	// unique constraint; nothing from the batch may survive.
	_, err := questions.SaveAll(ctx, []*Question{
		{ProblemName: "A", ProblemLink: "https://example.com/a"},
		{ProblemName: "B", ProblemLink: "https://example.com/a"},
	})
	require.Error(t, err)

	count, err := questions.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQuestionRepositoryExistsByProblemLink(t *testing.T) {
	store := newTestStore(t)
	questions := NewQuestionRepository(store)
	ctx := context.Background()

	exists, err := questions.ExistsByProblemLink(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = questions.SaveAll(ctx, []*Question{
		{ProblemName: "A", ProblemLink: "https://example.com/a"},
	})
	require.NoError(t, err)

	exists, err = questions.ExistsByProblemLink(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, exists)

	// Link matching is exact, not case-folded.
	exists, err = questions.ExistsByProblemLink(ctx, "https://example.com/A")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestQuestionRepositoryCount(t *testing.T) {
	store := newTestStore(t)
	questions := NewQuestionRepository(store)
	ctx := context.Background()

	count, err := questions.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = questions.SaveAll(ctx, []*Question{
		{ProblemName: "A", ProblemLink: "https://example.com/a"},
		{ProblemName: "B", ProblemLink: "https://example.com/b"},
		{ProblemName: "C", ProblemLink: "https://example.com/c"},
	})
	require.NoError(t, err)

	count, err = questions.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestFindAllEmptyStore(t *testing.T) {
	store := newTestStore(t)
	questions := NewQuestionRepository(store)

	found, err := questions.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}
