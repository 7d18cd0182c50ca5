package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"HealthBuddy/internal/chat"
	"HealthBuddy/internal/healthcalc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateAndGetFromCache(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	store := NewStore(repo, 0, 0)

	sess, err := store.Create(ctx, healthcalc.DefaultProfile())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.WithinDuration(t, time.Now().Add(DefaultSessionTTL), sess.ExpiresAt, time.Minute)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Zero(t, repo.loads.Load(), "cached session should not hit the repository")
}

func TestStoreGetLoadsTranscriptOnCacheMiss(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	warm := NewStore(repo, 8, time.Hour)

	p := healthcalc.DefaultProfile()
	p.Allergies = []string{"Dairy"}
	sess, err := warm.Create(ctx, p)
	require.NoError(t, err)

	sess.mu.Lock()
	_, err = warm.appendTurn(ctx, sess, chat.RoleUser, "hi")
	require.NoError(t, err)
	_, err = warm.appendTurn(ctx, sess, chat.RoleAssistant, "hello")
	require.NoError(t, err)
	sess.mu.Unlock()

	cold := NewStore(repo, 8, time.Hour)
	loaded, err := cold.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, repo.loads.Load())
	assert.Equal(t, []string{"Dairy"}, loaded.Profile().Allergies)

	turns := loaded.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, chat.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[1].Content)
}

func TestStoreConcurrentMissesShareOneSession(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	sess, err := NewStore(repo, 8, time.Hour).Create(ctx, healthcalc.DefaultProfile())
	require.NoError(t, err)

	repo.loadGate = make(chan struct{})
	cold := NewStore(repo, 8, time.Hour)

	const callers = 8
	got := make([]*Session, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := cold.Get(ctx, sess.ID)
			assert.NoError(t, err)
			got[i] = s
		}()
	}

	require.Eventually(t, func() bool { return repo.loads.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.loadGate)
	wg.Wait()

	cached, err := cold.Get(ctx, sess.ID)
	require.NoError(t, err)
	for _, s := range got {
		assert.Same(t, cached, s)
	}
	assert.EqualValues(t, 1, repo.loads.Load())
}

func TestStoreGetUnknownSession(t *testing.T) {
	store := NewStore(newMemRepo(), 8, time.Hour)

	for _, id := range []string{"not-a-uuid", "1b4e28ba-2fa1-11d2-883f-0016d3cca427"} {
		_, err := store.Get(context.Background(), id)
		assert.ErrorIs(t, err, ErrSessionNotFound, id)
	}
}

func TestStoreGetExpiredSession(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	store := NewStore(repo, 8, time.Hour)

	sess, err := store.Create(ctx, healthcalc.DefaultProfile())
	require.NoError(t, err)

	later := time.Now().Add(2 * time.Hour)
	store.now = func() time.Time { return later }
	repo.now = store.now

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStoreUpdateProfileExtendsExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepo(), 8, time.Hour)

	sess, err := store.Create(ctx, healthcalc.DefaultProfile())
	require.NoError(t, err)
	before := sess.View().ExpiresAt

	later := time.Now().Add(30 * time.Minute)
	store.now = func() time.Time { return later }

	p := healthcalc.DefaultProfile()
	p.CurrentWeek = 5
	require.NoError(t, store.UpdateProfile(ctx, sess, p))

	assert.Equal(t, 5, sess.Profile().CurrentWeek)
	assert.True(t, sess.View().ExpiresAt.After(before))
}

func TestStoreAppendTurnKeepsMemoryOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	store := NewStore(repo, 8, time.Hour)

	sess, err := store.Create(ctx, healthcalc.DefaultProfile())
	require.NoError(t, err)

	repo.failInsert = errors.New("connection reset")
	sess.mu.Lock()
	_, err = store.appendTurn(ctx, sess, chat.RoleUser, "hi")
	sess.mu.Unlock()

	require.Error(t, err)
	assert.Empty(t, sess.Transcript())
}

func TestStoreAppendTurnRejectsBlankMessage(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	store := NewStore(repo, 8, time.Hour)

	sess, err := store.Create(ctx, healthcalc.DefaultProfile())
	require.NoError(t, err)

	sess.mu.Lock()
	_, err = store.appendTurn(ctx, sess, chat.RoleUser, "   ")
	sess.mu.Unlock()

	assert.ErrorIs(t, err, chat.ErrEmptyMessage)
	assert.Zero(t, repo.messageCount(sess.ID))
}

func TestStoreClearTranscript(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	store := NewStore(repo, 8, time.Hour)

	sess, err := store.Create(ctx, healthcalc.DefaultProfile())
	require.NoError(t, err)
	sess.mu.Lock()
	_, err = store.appendTurn(ctx, sess, chat.RoleUser, "hi")
	sess.mu.Unlock()
	require.NoError(t, err)

	require.NoError(t, store.ClearTranscript(ctx, sess))
	assert.Empty(t, sess.Transcript())
	assert.Zero(t, repo.messageCount(sess.ID))
}

func TestStorePlans(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepo(), 8, time.Hour)

	sess, err := store.Create(ctx, healthcalc.DefaultProfile())
	require.NoError(t, err)

	_, err = store.GetPlan(ctx, sess.ID, 1)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	for _, week := range []int{3, 1} {
		p := healthcalc.DefaultProfile()
		p.CurrentWeek = week
		_, err := store.SavePlan(ctx, sess.ID, WeeklyPlan{Week: week, Content: "draft", Profile: p})
		require.NoError(t, err)
	}

	replaced, err := store.SavePlan(ctx, sess.ID, WeeklyPlan{Week: 3, Content: "final", Model: "m", Profile: healthcalc.DefaultProfile()})
	require.NoError(t, err)
	assert.Equal(t, "final", replaced.Content)

	plans, err := store.ListPlans(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, 1, plans[0].Week)
	assert.Equal(t, 3, plans[1].Week)
	assert.Equal(t, "final", plans[1].Content)

	got, err := store.GetPlan(ctx, sess.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "m", got.Model)
}
