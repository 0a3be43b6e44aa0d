package job

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thread-service/internal/domain"
)

type mockRepo struct {
	purgeFn func(time.Time) (int64, error)
}

func (m *mockRepo) Create(*domain.Comment) error                   { return nil }
func (m *mockRepo) FindByID(uuid.UUID) (*domain.Comment, error)    { return nil, nil }
func (m *mockRepo) Update(*domain.Comment) error                   { return nil }
func (m *mockRepo) DeleteWithReplies(*domain.Comment) (int64, error) { return 0, nil }
func (m *mockRepo) FindPageByContentItem(uuid.UUID, int, int) ([]domain.Comment, int64, error) {
	return nil, 0, nil
}
func (m *mockRepo) ToggleVote(uuid.UUID, uuid.UUID, domain.VoteType) (int64, error) {
	return 0, nil
}
func (m *mockRepo) VoteScores([]uuid.UUID) (map[uuid.UUID]int64, error) { return nil, nil }
func (m *mockRepo) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	return m.purgeFn(cutoff)
}

func TestCleanupJob_RunUsesRetentionCutoff(t *testing.T) {
	var gotCutoff time.Time
	repo := &mockRepo{
		purgeFn: func(cutoff time.Time) (int64, error) {
			gotCutoff = cutoff
			return 2, nil
		},
	}

	j := NewCleanupJob(repo, zap.NewNop(), "0 3 * * *", 30)
	j.Run()

	want := time.Now().UTC().AddDate(0, 0, -30)
	assert.WithinDuration(t, want, gotCutoff, time.Minute)
}

func TestCleanupJob_StartRejectsBadSchedule(t *testing.T) {
	repo := &mockRepo{purgeFn: func(time.Time) (int64, error) { return 0, nil }}
	j := NewCleanupJob(repo, zap.NewNop(), "not a schedule", 30)
	assert.Error(t, j.Start())
}

func TestCleanupJob_StartAndStop(t *testing.T) {
	repo := &mockRepo{purgeFn: func(time.Time) (int64, error) { return 0, nil }}
	j := NewCleanupJob(repo, zap.NewNop(), "@every 1h", 30)
	require.NoError(t, j.Start())
	j.Stop()
}
