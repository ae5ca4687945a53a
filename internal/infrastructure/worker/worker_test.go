package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/classifier"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/conversation"
)

type stubWorker struct {
	name     string
	startErr error
	started  bool
	stopped  bool
}

func (w *stubWorker) Start(ctx context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	w.started = true
	return nil
}

func (w *stubWorker) Stop() error {
	w.stopped = true
	return nil
}

func (w *stubWorker) Name() string { return w.name }

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(zap.NewNop())
	ok := &stubWorker{name: "ok"}
	broken := &stubWorker{name: "broken", startErr: assert.AnError}
	m.Register(ok)
	m.Register(broken)
	assert.Equal(t, 2, m.Count())

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.True(t, ok.started)
	assert.False(t, broken.started)

	assert.Equal(t, map[string]string{"ok": "running", "broken": "failed: " + assert.AnError.Error()}, m.Status())
	assert.Equal(t, "broken=failed: "+assert.AnError.Error()+", ok=running", m.Summary())

	assert.Error(t, m.StartAll(context.Background()), "second start must fail")

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.True(t, ok.stopped)
	assert.False(t, broken.stopped, "a worker that never started is not stopped")
	assert.Equal(t, "stopped", m.Status()["ok"])
	assert.NoError(t, m.StopAll(), "stopping twice is a no-op")
}

func TestExpiryWorker_Sweep(t *testing.T) {
	store := conversation.NewMemoryStore(24 * time.Hour)
	ctx := context.Background()
	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, entity.NewConversationContext("r-1", entity.RoleResident, base.Add(-30*time.Hour))))
	require.NoError(t, store.Put(ctx, entity.NewConversationContext("r-2", entity.RoleResident, base.Add(-time.Hour))))

	w := NewExpiryWorker(store, time.Minute, zap.NewNop())
	w.now = func() time.Time { return base }

	w.Sweep(ctx)
	assert.Equal(t, 1, w.Swept())
	assert.Equal(t, 1, store.Len())

	w.Sweep(ctx)
	assert.Equal(t, 1, w.Swept(), "nothing left to expire")
}

func TestExpiryWorker_StartStop(t *testing.T) {
	w := NewExpiryWorker(conversation.NewMemoryStore(time.Hour), 5*time.Millisecond, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestRulesWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triage_rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cancel_words: [\"scrap that\"]\n"), 0o644))

	store := classifier.NewRuleStore(nil)
	w := NewRulesWatcher(path, store, zap.NewNop())

	require.True(t, w.Reload())
	assert.Equal(t, []string{"scrap that"}, store.Rules().Set().CancelWords)
	assert.True(t, store.Rules().IsCancel("scrap that"))

	require.NoError(t, os.WriteFile(path, []byte("cancel_words: [unterminated\n"), 0o644))
	assert.False(t, w.Reload())
	assert.Equal(t, []string{"scrap that"}, store.Rules().Set().CancelWords, "bad file keeps previous rules")
	assert.Equal(t, 1, w.Reloads())
}

func TestRulesWatcher_WatchesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triage_rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("affirm_words: [yes]\n"), 0o644))

	store := classifier.NewRuleStore(nil)
	w := NewRulesWatcher(path, store, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("affirm_words: [\"sounds good\"]\n"), 0o644))

	assert.Eventually(t, func() bool {
		return store.Rules().IsAffirm("sounds good")
	}, 2*time.Second, 10*time.Millisecond)
}
