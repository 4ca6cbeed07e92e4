package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/interop/internal/javatest"
	"github.com/jward/interop/internal/store"
)

func newTestService(t *testing.T, paths Paths, opts ...Option) *Service {
	t.Helper()
	svc, err := New(paths, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func newSampleService(t *testing.T) *Service {
	t.Helper()
	return newTestService(t, Paths{Sources: []string{javatest.WriteProject(t, javatest.Sample())}})
}

// runAt runs fn against a snapshot advanced to phase and fails the test on
// any task error.
func runAt(t *testing.T, svc *Service, phase Phase, fn func(*Snapshot)) {
	t.Helper()
	err := svc.RunUserActionTask(context.Background(), func(snap *Snapshot) error {
		snap.ToPhase(phase)
		fn(snap)
		return nil
	}, false)
	require.NoError(t, err)
}

func TestNew_MissingLookupPath(t *testing.T) {
	_, err := New(Paths{Sources: []string{filepath.Join(t.TempDir(), "nope")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupPath))
}

func TestNew_RejectsPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := New(Paths{Dependencies: []string{path}})
	assert.ErrorIs(t, err, ErrLookupPath)
}

func TestNew_InvalidExclude(t *testing.T) {
	_, err := New(Paths{}, WithExcludes("[unclosed"))
	require.Error(t, err)
}

func TestNew_UniqueIDs(t *testing.T) {
	a := newTestService(t, Paths{})
	b := newTestService(t, Paths{})
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRunUserActionTask_EmbeddedPlatform(t *testing.T) {
	svc := newTestService(t, Paths{})
	runAt(t, svc, PhaseElementsDiscovered, func(snap *Snapshot) {
		obj := snap.Object()
		require.NotNil(t, obj)
		assert.Equal(t, "java.lang.Object", obj.QualifiedName())
		loc, ok := obj.Location()
		require.True(t, ok)
		assert.Equal(t, store.OriginPlatform, loc.Origin)
		assert.NotNil(t, snap.PackageElement("java.lang"))
		assert.NotNil(t, snap.PackageElement("java"), "parent packages exist")
		assert.Nil(t, snap.PackageElement("javax"))
	})
}

func TestRunUserActionTask_ClosedService(t *testing.T) {
	svc, err := New(Paths{})
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())

	err = svc.RunUserActionTask(context.Background(), func(*Snapshot) error { return nil }, false)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRunUserActionTask_TaskErrorReturned(t *testing.T) {
	svc := newTestService(t, Paths{})
	want := errors.New("boom")
	err := svc.RunUserActionTask(context.Background(), func(*Snapshot) error { return want }, false)
	assert.ErrorIs(t, err, want)
}

func TestRunUserActionTask_StaleElementIsUsageError(t *testing.T) {
	svc := newSampleService(t)
	var kept *Element
	runAt(t, svc, PhaseElementsDiscovered, func(snap *Snapshot) {
		kept = snap.TypeElement("com.example.Plain")
		require.NotNil(t, kept)
	})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		var ue *UsageError
		require.True(t, errors.As(r.(error), &ue))
		assert.Equal(t, "Kind", ue.Op)
	}()
	kept.Kind()
}

func TestRunUserActionTask_PhaseGate(t *testing.T) {
	svc := newSampleService(t)
	err := svc.RunUserActionTask(context.Background(), func(snap *Snapshot) error {
		snap.TypeElement("com.example.Plain").Superclass()
		return nil
	}, false)
	var ue *UsageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Superclass", ue.Op)

	err = svc.RunUserActionTask(context.Background(), func(snap *Snapshot) error {
		snap.ToPhase(PhaseElementsResolved)
		snap.TypeElement("com.example.Annotated").Annotations()
		return nil
	}, false)
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Annotations", ue.Op)
}

func TestSnapshot_ToPhaseNeverRegresses(t *testing.T) {
	svc := newTestService(t, Paths{})
	runAt(t, svc, PhaseFullyResolved, func(snap *Snapshot) {
		assert.Equal(t, PhaseFullyResolved, snap.ToPhase(PhaseElementsDiscovered))
		assert.Equal(t, PhaseFullyResolved, snap.Phase())
	})
}

func TestParsePhase(t *testing.T) {
	for _, p := range []Phase{PhaseElementsDiscovered, PhaseElementsResolved, PhaseFullyResolved} {
		got, err := ParsePhase(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePhase("parsed")
	assert.Error(t, err)
}

func TestRefresh_PicksUpChanges(t *testing.T) {
	dir := javatest.WriteProject(t, map[string]string{
		"p/A.java": "package p;\npublic class A {}\n",
		"p/B.java": "package p;\npublic class B {}\n",
	})
	svc := newTestService(t, Paths{Sources: []string{dir}})

	runAt(t, svc, PhaseElementsDiscovered, func(snap *Snapshot) {
		assert.NotNil(t, snap.TypeElement("p.A"))
		assert.NotNil(t, snap.TypeElement("p.B"))
	})

	require.NoError(t, os.Remove(filepath.Join(dir, "p", "B.java")))
	javatest.WriteFiles(t, dir, map[string]string{
		"p/A.java": "package p;\npublic class A { public int added; }\n",
	})

	// Without requireFresh the previous index is reused.
	runAt(t, svc, PhaseElementsDiscovered, func(snap *Snapshot) {
		assert.NotNil(t, snap.TypeElement("p.B"))
	})

	err := svc.RunUserActionTask(context.Background(), func(snap *Snapshot) error {
		assert.Nil(t, snap.TypeElement("p.B"))
		a := snap.TypeElement("p.A")
		require.NotNil(t, a)
		var names []string
		for _, m := range a.Enclosed() {
			names = append(names, m.SimpleName())
		}
		assert.Contains(t, names, "added")
		return nil
	}, true)
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Greater(t, stats.Files, 1)
}

func TestRefresh_UnchangedFilesKeepIdentity(t *testing.T) {
	svc := newSampleService(t)
	var first, second int64
	runAt(t, svc, PhaseElementsDiscovered, func(snap *Snapshot) {
		first = snap.TypeElement("com.example.Plain").row.ID
	})
	err := svc.RunUserActionTask(context.Background(), func(snap *Snapshot) error {
		second = snap.TypeElement("com.example.Plain").row.ID
		return nil
	}, true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRefresh_Excludes(t *testing.T) {
	dir := javatest.WriteProject(t, map[string]string{
		"p/A.java":           "package p;\npublic class A {}\n",
		"generated/p/G.java": "package p;\npublic class G {}\n",
		".hidden/p/H.java":   "package p;\npublic class H {}\n",
	})
	svc := newTestService(t, Paths{Sources: []string{dir}}, WithExcludes("generated/**"))
	runAt(t, svc, PhaseElementsDiscovered, func(snap *Snapshot) {
		assert.NotNil(t, snap.TypeElement("p.A"))
		assert.Nil(t, snap.TypeElement("p.G"))
		assert.Nil(t, snap.TypeElement("p.H"))
	})
}

func TestLookupOrder_EarlierPathShadows(t *testing.T) {
	dep := javatest.WriteJar(t, "dep-sources.jar", map[string]string{
		"p/A.java": "package p;\npublic class A { public static class FromDep {} }\n",
	})
	src := javatest.WriteProject(t, map[string]string{
		"p/A.java": "package p;\npublic class A { public static class FromSource {} }\n",
	})
	svc := newTestService(t, Paths{Dependencies: []string{dep}, Sources: []string{src}})

	runAt(t, svc, PhaseElementsDiscovered, func(snap *Snapshot) {
		a := snap.TypeElement("p.A")
		require.NotNil(t, a)
		loc, ok := a.Location()
		require.True(t, ok)
		assert.Equal(t, store.OriginDependency, loc.Origin)
		assert.Contains(t, loc.Path, "dep-sources.jar!/p/A.java")

		assert.NotNil(t, snap.TypeElement("p.A.FromDep"))
		assert.Nil(t, snap.TypeElement("p.A.FromSource"), "members of a shadowed class are hidden")

		classes := snap.PackageElement("p").Enclosed()
		require.Len(t, classes, 1)
		assert.True(t, classes[0].Same(a))
	})
}

func TestLookupOrder_UserPlatformReplacesEmbedded(t *testing.T) {
	plat := javatest.WriteProject(t, map[string]string{
		"java/lang/Object.java": "package java.lang;\npublic class Object { public void custom() {} }\n",
	})
	svc := newTestService(t, Paths{Platform: []string{plat}})
	runAt(t, svc, PhaseElementsDiscovered, func(snap *Snapshot) {
		require.NotNil(t, snap.Object())
		assert.Nil(t, snap.TypeElement("java.lang.String"))
	})
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	return javatest.WriteProject(t, files)
}
