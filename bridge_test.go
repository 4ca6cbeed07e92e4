package interop

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jward/interop/internal/handle"
	"github.com/jward/interop/internal/javatest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newSampleBridge serves the javatest sample as project "app" and counts
// classpath lookups.
func newSampleBridge(t *testing.T, opts ...Option) (*Bridge, string, *atomic.Int32) {
	t.Helper()
	dir := javatest.WriteProject(t, javatest.Sample())
	var calls atomic.Int32
	provider := ClasspathFunc(func(_ context.Context, project string) (Paths, []string, error) {
		calls.Add(1)
		if project != "app" {
			return Paths{}, nil, errors.New("unknown project")
		}
		return Paths{Sources: []string{dir}}, nil, nil
	})
	b := New(provider, opts...)
	t.Cleanup(func() { require.NoError(t, b.Close()) })
	return b, dir, &calls
}

func TestFindClass(t *testing.T) {
	b, _, calls := newSampleBridge(t)
	p := b.Project("app")

	cls, err := p.FindClass("com.example.Outer$Middle")
	require.NoError(t, err)
	require.NotNil(t, cls)
	assert.Equal(t, "com.example.Outer.Middle", cls.QualifiedName())
	name, err := cls.SimpleName()
	require.NoError(t, err)
	assert.Equal(t, "Middle", name)

	missing, err := p.FindClass("com.example.Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	pkg, err := p.FindPackage("com.example.util")
	require.NoError(t, err)
	require.NotNil(t, pkg)
	classes, err := pkg.Classes()
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "com.example.util.Box", classes[0].QualifiedName())

	assert.Equal(t, int32(1), calls.Load(), "session built once and reused")
}

func TestUnknownProject(t *testing.T) {
	b, _, _ := newSampleBridge(t)
	_, err := b.Project("ghost").FindClass("com.example.Plain")
	assert.ErrorContains(t, err, "unknown project")
}

func TestClassifierAccessors(t *testing.T) {
	b, _, _ := newSampleBridge(t)
	p := b.Project("app")
	members := p.Classifier(handle.ForClass("com.example.Members"))

	kind, err := members.ClassKind()
	require.NoError(t, err)
	assert.Equal(t, "class", kind)

	supers, err := members.Supertypes()
	require.NoError(t, err)
	require.Len(t, supers, 2)
	assert.Equal(t, "java.lang.Object", supers[0].String())
	assert.Equal(t, "java.lang.Comparable<com.example.Members<T>>", supers[1].String())

	methods, err := members.Methods()
	require.NoError(t, err)
	assert.Len(t, methods, 7)

	ctors, err := members.Constructors()
	require.NoError(t, err)
	require.Len(t, ctors, 2)
	params, err := ctors[1].ValueParameters()
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "name", params[0].Name)
	assert.Equal(t, "java.lang.String", params[0].Type.String())
	assert.True(t, params[1].Varargs)

	fields, err := members.Fields()
	require.NoError(t, err)
	assert.Len(t, fields, 9)

	inner, err := members.InnerClasses()
	require.NoError(t, err)
	require.Len(t, inner, 2)
	outer, err := inner[0].Outer()
	require.NoError(t, err)
	assert.True(t, outer.Equal(members))

	tps, err := members.TypeParameters()
	require.NoError(t, err)
	require.Len(t, tps, 1)
	bounds, err := tps[0].Bounds()
	require.NoError(t, err)
	require.Len(t, bounds, 1)
	assert.Equal(t, "java.lang.Comparable<T>", bounds[0].String())

	mods, err := members.Modifiers()
	require.NoError(t, err)
	assert.True(t, mods.Public)
	assert.True(t, mods.Abstract)
}

func TestNestedID(t *testing.T) {
	b, _, _ := newSampleBridge(t)
	p := b.Project("app")

	id, ok, err := p.Classifier(handle.ForClass("com.example.Outer.Middle.Inner")).NestedID()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "com.example.Outer$Middle$Inner", id.BinaryName())

	_, ok, err = p.Classifier(handle.ForClass("com.example.Gone")).NestedID()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemberAdapters(t *testing.T) {
	b, _, _ := newSampleBridge(t)
	p := b.Project("app")
	members := p.Classifier(handle.ForClass("com.example.Members"))

	found, err := members.FindMember("label", KindField, -1)
	require.NoError(t, err)
	label, ok := found.(*Field)
	require.True(t, ok)
	vis, err := label.Visibility()
	require.NoError(t, err)
	assert.Equal(t, ProtectedStatic, vis)
	typ, err := label.Type()
	require.NoError(t, err)
	assert.Equal(t, "java.lang.String", typ.String())
	owner, err := label.Owner()
	require.NoError(t, err)
	assert.True(t, owner.Equal(members))

	found, err = members.FindMember("first", KindMethod, 1)
	require.NoError(t, err)
	first := found.(*Method)
	ret, err := first.ReturnType()
	require.NoError(t, err)
	assert.Equal(t, ShapeTypeVariable, ret.Shape())
	tp, err := ret.TypeParameter()
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.Equal(t, handle.ForTypeParameter(members.Handle(), "T"), tp.Handle())

	params, err := first.ValueParameters()
	require.NoError(t, err)
	require.Len(t, params, 1)
	args, err := params[0].Type.Arguments()
	require.NoError(t, err)
	require.Len(t, args, 1)
	bound, variance, err := args[0].WildcardBound()
	require.NoError(t, err)
	assert.Equal(t, Covariant, variance)
	assert.True(t, bound.Equal(ret))

	found, err = members.FindMember("nothing", KindMethod, -1)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestTypeAdapter(t *testing.T) {
	b, _, _ := newSampleBridge(t)
	p := b.Project("app")
	members := p.Classifier(handle.ForClass("com.example.Members"))

	raw, err := members.FindMember("raw", KindMethod, 0)
	require.NoError(t, err)
	rt, err := raw.(*Method).ReturnType()
	require.NoError(t, err)
	isRaw, err := rt.IsRaw()
	require.NoError(t, err)
	assert.True(t, isRaw)
	cls, err := rt.Classifier()
	require.NoError(t, err)
	assert.Equal(t, "java.util.List", cls.QualifiedName())

	grid := p.Type(handle.ArrayOf(handle.ArrayOf(handle.PrimitiveOf("int"))))
	component, err := grid.ArrayComponent()
	require.NoError(t, err)
	assert.Equal(t, "int[]", component.String())
	none, err := component.Classifier()
	require.NoError(t, err)
	assert.Nil(t, none)

	gone := p.Type(handle.DeclaredOf(handle.ForClass("com.example.Gone")))
	exists, err := gone.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
	assert.True(t, members.DefaultType().Equal(p.Type(handle.DeclaredOf(members.Handle()))))
}

func TestAnnotationAdapter(t *testing.T) {
	b, _, _ := newSampleBridge(t)
	p := b.Project("app")
	annotated := p.Classifier(handle.ForClass("com.example.Annotated"))

	anns, err := annotated.Annotations()
	require.NoError(t, err)
	require.Len(t, anns, 2)
	info := anns[0]
	assert.Equal(t, "com.example.Info", info.QualifiedName())
	assert.Len(t, info.Arguments(), 5)

	arg, defaulted, err := info.Argument("name")
	require.NoError(t, err)
	assert.False(t, defaulted)
	assert.Equal(t, Literal{Value: "widget"}, arg)

	found, err := annotated.FindMember("plain", KindMethod, 0)
	require.NoError(t, err)
	plainAnns, err := found.(*Method).Annotations()
	require.NoError(t, err)
	require.Len(t, plainAnns, 1)
	arg, defaulted, err = plainAnns[0].Argument("level")
	require.NoError(t, err)
	assert.True(t, defaulted)
	assert.Equal(t, Reference{Element: handle.ForField(handle.ForClass("com.example.Level"), "LOW")}, arg)

	arg, _, err = plainAnns[0].Argument("missing")
	require.NoError(t, err)
	assert.Nil(t, arg)
}

func TestContractViolation(t *testing.T) {
	b, _, _ := newSampleBridge(t)
	p := b.Project("app")

	pkg := p.Classifier(handle.ForPackage("com.example"))
	_, err := pkg.Supertypes()
	assert.ErrorIs(t, err, ErrContractViolation)
	var ce *ContractError
	assert.ErrorAs(t, err, &ce)

	_, err = p.Element(ElementHandle{})
	assert.Error(t, err)
}

func TestAdaptersSurviveInvalidation(t *testing.T) {
	b, dir, calls := newSampleBridge(t)
	p := b.Project("app")

	plain, err := p.FindClass("com.example.Plain")
	require.NoError(t, err)
	require.NotNil(t, plain)

	javatest.WriteFiles(t, dir, map[string]string{
		"com/example/Plain.java": "package com.example;\n\npublic class Plain implements Comparable<Plain> {\n    public int compareTo(Plain o) { return 0; }\n}\n",
	})
	p.Invalidate()

	supers, err := plain.Supertypes()
	require.NoError(t, err)
	require.Len(t, supers, 2)
	assert.Equal(t, "java.lang.Comparable<com.example.Plain>", supers[1].String())
	assert.Equal(t, int32(2), calls.Load())

	require.NoError(t, os.Remove(filepath.Join(dir, "com", "example", "Plain.java")))
	b.InvalidateAll()
	exists, err := plain.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
	name, err := plain.SimpleName()
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestProjectWithContext(t *testing.T) {
	b, _, _ := newSampleBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Project("app").WithContext(ctx).FindClass("com.example.Plain")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	b, _, _ := newSampleBridge(t, WithRegisterer(reg))
	_, err := b.Project("app").FindClass("com.example.Plain")
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "interop_tasks_total", "interop_session_builds_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWatchConfig(t *testing.T) {
	b, _, calls := newSampleBridge(t)
	cfg := filepath.Join(t.TempDir(), "interop.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("projects: {}\n"), 0o644))

	_, err := b.Project("app").FindClass("com.example.Plain")
	require.NoError(t, err)

	stop, err := b.WatchConfig(context.Background(), []string{cfg}, 10*time.Millisecond)
	require.NoError(t, err)
	defer func() { require.NoError(t, stop()) }()

	require.NoError(t, os.WriteFile(cfg, []byte("projects: {app: {}}\n"), 0o644))
	assert.Eventually(t, func() bool {
		_, err := b.Project("app").FindClass("com.example.Plain")
		return err == nil && calls.Load() >= 2
	}, 5*time.Second, 20*time.Millisecond)
}
