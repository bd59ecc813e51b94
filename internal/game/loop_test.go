package game

import (
	"context"
	"testing"
	"time"

	"github.com/jtafstn/webidle/internal/economy"
	"github.com/jtafstn/webidle/internal/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func TestLoop_TicksCreditProduction(t *testing.T) {
	f := newSessionFixture(t, nil, 0)
	f.session.Load(context.Background())
	f.session.Do(func(_ *economy.Engine, st *player.State) { st.GPS = 4 })

	ticks := make(chan TickResult, 8)
	loop := NewLoop(f.session, LoopConfig{TickInterval: time.Second}, LoopHooks{
		OnTick: func(r TickResult, _ player.State) { ticks <- r },
	})
	require.True(t, loop.Start())
	defer loop.Stop()
	assert.False(t, loop.Start())

	require.Eventually(t, func() bool { return f.clock.Tickers() == 1 }, waitFor, time.Millisecond)
	f.clock.Advance(time.Second)

	select {
	case r := <-ticks:
		assert.Equal(t, int64(4), r.Gained)
	case <-time.After(waitFor):
		t.Fatal("tick hook not called")
	}
	assert.Equal(t, int64(4), f.session.Snapshot().Gold)
}

func TestLoop_StopPausesAndStartResumes(t *testing.T) {
	f := newSessionFixture(t, nil, 0)
	f.session.Load(context.Background())
	f.session.Do(func(_ *economy.Engine, st *player.State) { st.GPS = 1 })

	loop := NewLoop(f.session, LoopConfig{TickInterval: time.Second}, LoopHooks{})
	require.True(t, loop.Start())
	require.Eventually(t, func() bool { return f.clock.Tickers() == 1 }, waitFor, time.Millisecond)
	f.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return f.session.Snapshot().Gold == 1 }, waitFor, time.Millisecond)

	loop.Stop()
	assert.False(t, loop.Running())
	assert.Equal(t, 0, f.clock.Tickers())
	f.clock.Advance(5 * time.Second)
	assert.Equal(t, int64(1), f.session.Snapshot().Gold)
	loop.Stop()

	require.True(t, loop.Start())
	defer loop.Stop()
	assert.True(t, loop.Running())
	require.Eventually(t, func() bool { return f.clock.Tickers() == 1 }, waitFor, time.Millisecond)
	f.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return f.session.Snapshot().Gold == 2 }, waitFor, time.Millisecond)
}

func TestLoop_Autosave(t *testing.T) {
	f := newSessionFixture(t, nil, 0)
	f.session.Load(context.Background())
	f.session.Purchase("start")

	saves := make(chan error, 4)
	loop := NewLoop(f.session, LoopConfig{TickInterval: time.Second, AutosaveInterval: 5 * time.Second}, LoopHooks{
		OnSave: func(err error) { saves <- err },
	})
	require.True(t, loop.Start())
	defer loop.Stop()

	require.Eventually(t, func() bool { return f.clock.Tickers() == 2 }, waitFor, time.Millisecond)
	f.clock.Advance(5 * time.Second)

	select {
	case err := <-saves:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("autosave not triggered")
	}
	raw, ok, err := f.store.Get(context.Background(), "test-save")
	require.NoError(t, err)
	require.True(t, ok)
	st, _ := player.Reconcile(raw, sessionStart)
	assert.Equal(t, []string{"start"}, st.Upgrades.IDs())
}
