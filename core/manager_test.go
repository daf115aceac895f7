package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skekre98/arc/core"
)

type CapX interface{ X() }
type CapY interface{ Y() }

// fakeModule records hook calls and can be told to fail.
type fakeModule struct {
	core.Base
	name string
	key  core.Key

	configureErr error
	startErr     error
	stopErr      error
	onStart      func(r core.Resolver) error

	configures, starts, stops int
	log                       *[]string
}

func newFake(name string, key core.Key) *fakeModule {
	return &fakeModule{name: name, key: key}
}

func (f *fakeModule) Name() string { return f.name }
func (f *fakeModule) BindKey() core.Key { return f.key }
func (f *fakeModule) X() {}
func (f *fakeModule) Y() {}

func (f *fakeModule) Configure(core.Resolver) error {
	f.configures++
	f.record("configure")
	return f.configureErr
}

func (f *fakeModule) Start(_ context.Context, r core.Resolver) error {
	f.starts++
	f.record("start")
	if f.onStart != nil {
		if err := f.onStart(r); err != nil {
			return err
		}
	}
	return f.startErr
}

func (f *fakeModule) Stop(context.Context, core.Resolver) error {
	f.stops++
	f.record("stop")
	return f.stopErr
}

func (f *fakeModule) record(hook string) {
	if f.log != nil {
		*f.log = append(*f.log, f.name+":"+hook)
	}
}

type dependentModule struct {
	*fakeModule
	deps []core.Key
}

func (d *dependentModule) DependsOn() []core.Key { return d.deps }

type recordingObserver struct {
	started, stopped []string
	failed           []core.Stage
}

func (o *recordingObserver) ModuleStarted(m core.Module) { o.started = append(o.started, m.Name()) }
func (o *recordingObserver) ModuleStopped(m core.Module) { o.stopped = append(o.stopped, m.Name()) }
func (o *recordingObserver) ModuleFailed(_ core.Module, stage core.Stage, _ error) {
	o.failed = append(o.failed, stage)
}

func TestManager_EnableStartsAndBinds(t *testing.T) {
	ctx := context.Background()
	m := newFake("a", core.Key{})
	mgr := core.NewManager()
	mgr.AddModule(m)

	require.NoError(t, mgr.Enable(ctx))

	assert.True(t, m.Running())
	assert.Equal(t, 1, m.configures)
	assert.Equal(t, 1, m.starts)
	got, err := mgr.Lookup(core.KeyOf(m))
	require.NoError(t, err)
	assert.Same(t, m, got)

	// no BindKey override: published under the concrete type
	assert.Equal(t, "*core_test.fakeModule", core.KeyOf(m).String())
}

func TestManager_LastBindWins(t *testing.T) {
	m1 := newFake("m1", core.KeyFor[CapX]())
	m2 := newFake("m2", core.KeyFor[CapX]())
	mgr := core.NewManager()
	mgr.AddModule(m1, m2)

	require.NoError(t, mgr.Enable(context.Background()))

	got, err := core.Resolve[CapX](mgr.Registry())
	require.NoError(t, err)
	assert.Same(t, m2, got)
	assert.True(t, m1.Running())
	assert.True(t, m2.Running())
}

func TestManager_RemoveModuleKeepsBinding(t *testing.T) {
	m := newFake("a", core.KeyFor[CapX]())
	mgr := core.NewManager()
	mgr.AddModule(m)
	require.NoError(t, mgr.Enable(context.Background()))

	mgr.RemoveModule(m)

	assert.False(t, mgr.Contains(m))
	assert.True(t, m.Running())
	assert.Zero(t, m.stops)
	got, err := mgr.Lookup(core.KeyFor[CapX]())
	require.NoError(t, err)
	assert.Same(t, m, got)

	// removing again or removing a stranger is a no-op
	mgr.RemoveModule(m, newFake("stranger", core.Key{}))
	assert.Empty(t, mgr.Modules())
}

func TestManager_StopModuleUnbinds(t *testing.T) {
	ctx := context.Background()
	m := newFake("a", core.KeyFor[CapX]())
	mgr := core.NewManager()
	mgr.AddModule(m)
	require.NoError(t, mgr.Enable(ctx))

	require.NoError(t, mgr.StopModule(ctx, m))

	assert.False(t, m.Running())
	assert.Equal(t, 1, m.stops)
	assert.True(t, mgr.Contains(m))
	_, err := mgr.Lookup(core.KeyFor[CapX]())
	assert.ErrorIs(t, err, core.ErrNotBound)
}

func TestManager_StopModuleDropsKeyHeldByAnother(t *testing.T) {
	ctx := context.Background()
	m1 := newFake("m1", core.KeyFor[CapX]())
	m2 := newFake("m2", core.KeyFor[CapX]())
	mgr := core.NewManager()
	mgr.AddModule(m1, m2)
	require.NoError(t, mgr.Enable(ctx))

	require.NoError(t, mgr.StopModule(ctx, m1))

	assert.False(t, m1.Running())
	assert.True(t, m2.Running())
	_, err := mgr.Lookup(core.KeyFor[CapX]())
	assert.ErrorIs(t, err, core.ErrNotBound)
}

func TestManager_DisableStopsAndUnbindsAll(t *testing.T) {
	ctx := context.Background()
	var log []string
	a := newFake("a", core.KeyFor[CapX]())
	b := newFake("b", core.KeyFor[CapY]())
	a.log, b.log = &log, &log
	mgr := core.NewManager()
	mgr.AddModule(a, b)
	require.NoError(t, mgr.Enable(ctx))

	require.NoError(t, mgr.Disable(ctx))

	assert.False(t, a.Running())
	assert.False(t, b.Running())
	assert.False(t, mgr.Enabled())
	for _, key := range []core.Key{core.KeyFor[CapX](), core.KeyFor[CapY]()} {
		_, err := mgr.Lookup(key)
		assert.ErrorIs(t, err, core.ErrNotBound)
	}
	assert.Equal(t, []string{
		"a:configure", "b:configure",
		"a:start", "b:start",
		"b:stop", "a:stop",
	}, log)
}

func TestManager_DisableWithoutEnable(t *testing.T) {
	m := newFake("a", core.Key{})
	mgr := core.NewManager()
	mgr.AddModule(m)

	require.NoError(t, mgr.Disable(context.Background()))
	assert.False(t, m.Running())
	assert.Equal(t, 1, m.stops)
}

func TestManager_AddModuleIdempotent(t *testing.T) {
	m := newFake("a", core.Key{})
	mgr := core.NewManager()

	mgr.AddModule(m)
	mgr.AddModule(m, m)

	assert.Len(t, mgr.Modules(), 1)
	assert.True(t, mgr.Contains(m))
	assert.False(t, m.Running())
	_, err := mgr.Lookup(core.KeyOf(m))
	assert.ErrorIs(t, err, core.ErrNotBound)
}

func TestManager_Scenario(t *testing.T) {
	ctx := context.Background()
	a := newFake("A", core.KeyFor[CapX]())
	b := newFake("B", core.KeyFor[CapY]())
	mgr := core.NewManager()
	mgr.AddModule(a, b)

	require.NoError(t, mgr.Enable(ctx))
	assert.True(t, a.Running())
	assert.True(t, b.Running())
	gotX, err := core.Resolve[CapX](mgr.Registry())
	require.NoError(t, err)
	assert.Same(t, a, gotX)
	gotY, err := core.Resolve[CapY](mgr.Registry())
	require.NoError(t, err)
	assert.Same(t, b, gotY)

	require.NoError(t, mgr.StopModule(ctx, a))
	assert.False(t, a.Running())
	_, err = core.Resolve[CapX](mgr.Registry())
	assert.ErrorIs(t, err, core.ErrNotBound)
	assert.True(t, b.Running())
	_, err = core.Resolve[CapY](mgr.Registry())
	assert.NoError(t, err)

	require.NoError(t, mgr.Disable(ctx))
	assert.False(t, a.Running())
	assert.False(t, b.Running())
	_, err = core.Resolve[CapX](mgr.Registry())
	assert.ErrorIs(t, err, core.ErrNotBound)
	_, err = core.Resolve[CapY](mgr.Registry())
	assert.ErrorIs(t, err, core.ErrNotBound)
}

func TestManager_EnableIsOneShot(t *testing.T) {
	ctx := context.Background()
	m := newFake("a", core.Key{})
	mgr := core.NewManager()
	mgr.AddModule(m)
	require.NoError(t, mgr.Enable(ctx))

	err := mgr.Enable(ctx)

	assert.ErrorIs(t, err, core.ErrAlreadyEnabled)
	assert.Equal(t, 1, m.starts)

	require.NoError(t, mgr.Disable(ctx))
	require.NoError(t, mgr.Enable(ctx))
	assert.Equal(t, 2, m.starts)
	assert.True(t, m.Running())
}

func TestManager_EnableStartSeesWholeSet(t *testing.T) {
	first := newFake("first", core.KeyFor[CapX]())
	second := newFake("second", core.KeyFor[CapY]())
	var resolved CapY
	first.onStart = func(r core.Resolver) error {
		var err error
		resolved, err = core.Resolve[CapY](r)
		return err
	}
	mgr := core.NewManager()
	mgr.AddModule(first, second)

	require.NoError(t, mgr.Enable(context.Background()))
	assert.Same(t, second, resolved)
}

func TestManager_StartFailureKeepsEarlierModulesRunning(t *testing.T) {
	boom := errors.New("boom")
	a := newFake("a", core.KeyFor[CapX]())
	b := newFake("b", core.KeyFor[CapY]())
	b.startErr = boom
	c := newFake("c", core.Key{})
	obs := &recordingObserver{}
	mgr := core.NewManager(core.WithObserver(obs))
	mgr.AddModule(a, b, c)

	err := mgr.Enable(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var lerr *core.LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, core.StageStart, lerr.Stage)
	assert.Equal(t, "b", lerr.Module)

	assert.True(t, a.Running())
	assert.False(t, b.Running())
	assert.False(t, c.Running())
	assert.Zero(t, c.starts)
	assert.True(t, mgr.Enabled())
	assert.Equal(t, []string{"a"}, obs.started)
	assert.Equal(t, []core.Stage{core.StageStart}, obs.failed)
}

func TestManager_ConfigureFailureAbortsBeforeStart(t *testing.T) {
	a := newFake("a", core.KeyFor[CapX]())
	b := newFake("b", core.KeyFor[CapY]())
	b.configureErr = errors.New("bad settings")
	mgr := core.NewManager()
	mgr.AddModule(a, b)

	err := mgr.Enable(context.Background())

	var lerr *core.LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, core.StageConfigure, lerr.Stage)
	assert.Zero(t, a.starts)
	assert.False(t, a.Running())
}

func TestManager_StopFailureAbortsDisable(t *testing.T) {
	ctx := context.Background()
	a := newFake("a", core.KeyFor[CapX]())
	b := newFake("b", core.KeyFor[CapY]())
	b.stopErr = errors.New("stuck")
	mgr := core.NewManager()
	mgr.AddModule(a, b)
	require.NoError(t, mgr.Enable(ctx))

	err := mgr.Disable(ctx)

	var lerr *core.LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, core.StageStop, lerr.Stage)
	// b is stopped first and fails, so a is never reached
	assert.True(t, a.Running())
	assert.Zero(t, a.stops)
	assert.True(t, mgr.Enabled())
	_, err = mgr.Lookup(core.KeyFor[CapX]())
	assert.NoError(t, err)
}

func TestManager_StartModule(t *testing.T) {
	ctx := context.Background()
	m := newFake("late", core.KeyFor[CapX]())
	obs := &recordingObserver{}
	mgr := core.NewManager(core.WithObserver(obs))

	require.NoError(t, mgr.StartModule(ctx, m))

	assert.True(t, mgr.Contains(m))
	assert.True(t, m.Running())
	assert.Equal(t, 1, m.configures)
	got, err := mgr.Lookup(core.KeyFor[CapX]())
	require.NoError(t, err)
	assert.Same(t, m, got)
	assert.Equal(t, []string{"late"}, obs.started)

	require.NoError(t, mgr.StopModule(ctx, m))
	assert.Equal(t, []string{"late"}, obs.stopped)
}

func TestManager_StartModuleFailureLeavesItUntracked(t *testing.T) {
	m := newFake("late", core.KeyFor[CapX]())
	m.startErr = errors.New("no socket")
	mgr := core.NewManager()

	err := mgr.StartModule(context.Background(), m)

	assert.Error(t, err)
	assert.False(t, mgr.Contains(m))
	assert.False(t, m.Running())
	_, err = mgr.Lookup(core.KeyFor[CapX]())
	assert.ErrorIs(t, err, core.ErrNotBound)
}

func TestManager_StartModuleLeavesOthersAlone(t *testing.T) {
	ctx := context.Background()
	a := newFake("a", core.KeyFor[CapX]())
	mgr := core.NewManager()
	mgr.AddModule(a)
	require.NoError(t, mgr.Enable(ctx))

	b := newFake("b", core.KeyFor[CapY]())
	require.NoError(t, mgr.StartModule(ctx, b))

	assert.Equal(t, 1, a.starts)
	assert.Len(t, mgr.Modules(), 2)
}

func TestManager_DependsOnOrdersStart(t *testing.T) {
	var log []string
	consumer := &dependentModule{
		fakeModule: newFake("consumer", core.KeyFor[CapY]()),
		deps:       []core.Key{core.KeyFor[CapX]()},
	}
	provider := newFake("provider", core.KeyFor[CapX]())
	consumer.log, provider.log = &log, &log
	mgr := core.NewManager()
	mgr.AddModule(consumer, provider)

	require.NoError(t, mgr.Enable(context.Background()))
	require.NoError(t, mgr.Disable(context.Background()))

	assert.Equal(t, []string{
		"provider:configure", "consumer:configure",
		"provider:start", "consumer:start",
		"consumer:stop", "provider:stop",
	}, log)
}

func TestManager_DependsOnErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		consumer := &dependentModule{
			fakeModule: newFake("consumer", core.KeyFor[CapY]()),
			deps:       []core.Key{core.KeyFor[CapX]()},
		}
		mgr := core.NewManager()
		mgr.AddModule(consumer)

		err := mgr.Enable(context.Background())

		assert.ErrorIs(t, err, core.ErrMissingDependency)
		assert.False(t, mgr.Enabled())
		assert.Zero(t, consumer.starts)
	})

	t.Run("satisfied by earlier StartModule", func(t *testing.T) {
		ctx := context.Background()
		mgr := core.NewManager()
		require.NoError(t, mgr.StartModule(ctx, newFake("provider", core.KeyFor[CapX]())))
		mgr.RemoveModule(mgr.Modules()...)

		consumer := &dependentModule{
			fakeModule: newFake("consumer", core.KeyFor[CapY]()),
			deps:       []core.Key{core.KeyFor[CapX]()},
		}
		mgr.AddModule(consumer)

		require.NoError(t, mgr.Enable(ctx))
		assert.True(t, consumer.Running())
	})

	t.Run("cycle", func(t *testing.T) {
		x := &dependentModule{
			fakeModule: newFake("x", core.KeyFor[CapX]()),
			deps:       []core.Key{core.KeyFor[CapY]()},
		}
		y := &dependentModule{
			fakeModule: newFake("y", core.KeyFor[CapY]()),
			deps:       []core.Key{core.KeyFor[CapX]()},
		}
		mgr := core.NewManager()
		mgr.AddModule(x, y)

		err := mgr.Enable(context.Background())

		assert.ErrorIs(t, err, core.ErrDependencyCycle)
		_, lerr := mgr.Lookup(core.KeyFor[CapX]())
		assert.ErrorIs(t, lerr, core.ErrNotBound)
	})
}

func TestManager_ReadsDuringTransitions(t *testing.T) {
	ctx := context.Background()
	a := newFake("a", core.KeyFor[CapX]())
	mgr := core.NewManager()
	mgr.AddModule(a)
	require.NoError(t, mgr.Enable(ctx))

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				for _, m := range mgr.Modules() {
					_ = m.Running()
				}
				_ = mgr.Contains(a)
				_ = mgr.Enabled()
			}
		}
	}()

	for i := range 20 {
		require.NoError(t, mgr.StopModule(ctx, a))
		require.NoError(t, mgr.StartModule(ctx, newFake(fmt.Sprint("m", i), core.Key{})))
		require.NoError(t, mgr.StartModule(ctx, a))
	}
	close(done)
	wg.Wait()

	assert.Len(t, mgr.Modules(), 21)
	assert.True(t, a.Running())
}
