package handle

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/javatest"
)

func newSample(t *testing.T) (*compiler.Service, string) {
	t.Helper()
	dir := javatest.WriteProject(t, javatest.Sample())
	svc, err := compiler.New(compiler.Paths{Sources: []string{dir}})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc, dir
}

func run(t *testing.T, svc *compiler.Service, fn func(*compiler.Snapshot)) {
	t.Helper()
	err := svc.RunUserActionTask(context.Background(), func(snap *compiler.Snapshot) error {
		snap.ToPhase(compiler.PhaseFullyResolved)
		fn(snap)
		return nil
	}, true)
	require.NoError(t, err)
}

func TestElementHandle_Encoding(t *testing.T) {
	owner := ForClass("java.util.Map")
	put := ForMethod(owner, "put", "java.lang.Object", "java.lang.Object")
	ctor := ForConstructor(ForClass("java.lang.String"), "char[]")
	noArgs := ForMethod(owner, "size")
	field := ForField(owner, "EMPTY")
	classVar := ForTypeParameter(owner, "K")
	methodVar := ForTypeParameter(put, "R")
	ctorVar := ForTypeParameter(ctor, "X")

	tests := []struct {
		h      ElementHandle
		qname  string
		simple string
		arity  int
		owner  ElementHandle
	}{
		{ForPackage("java.util"), "java.util", "util", -1, ElementHandle{}},
		{ForClass("java.util.Map.Entry"), "java.util.Map.Entry", "Entry", -1, ElementHandle{}},
		{put, "java.util.Map#put(java.lang.Object,java.lang.Object)", "put", 2, owner},
		{noArgs, "java.util.Map#size()", "size", 0, owner},
		{ctor, "java.lang.String#<init>(char[])", "<init>", 1, ForClass("java.lang.String")},
		{field, "java.util.Map#EMPTY", "EMPTY", -1, owner},
		{classVar, "java.util.Map!K", "K", -1, owner},
		{methodVar, "java.util.Map#put(java.lang.Object,java.lang.Object)!R", "R", -1, put},
		{ctorVar, "java.lang.String#<init>(char[])!X", "X", -1, ctor},
	}
	for _, tt := range tests {
		t.Run(tt.qname, func(t *testing.T) {
			assert.Equal(t, tt.qname, tt.h.QualifiedName)
			assert.Equal(t, tt.simple, tt.h.SimpleName())
			assert.Equal(t, tt.arity, tt.h.Arity())
			got, ok := tt.h.Owner()
			assert.Equal(t, !tt.owner.IsZero(), ok)
			assert.Equal(t, tt.owner, got)

			parsed, err := Parse(tt.h.Key())
			require.NoError(t, err)
			assert.Equal(t, tt.h, parsed)
		})
	}
}

func TestElementHandle_EqualityIsIdentity(t *testing.T) {
	a := ForMethod(ForClass("p.A"), "m", "int")
	b := ElementHandle{Kind: Method, QualifiedName: "p.A#m(int)"}
	assert.True(t, a == b)
	assert.NotEqual(t, ForClass("p.A"), ForPackage("p.A"))

	seen := map[ElementHandle]bool{a: true}
	assert.True(t, seen[b])
}

func TestParse_Errors(t *testing.T) {
	for _, s := range []string{"", "class", "class:", "widget:p.A"} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestKind_JSON(t *testing.T) {
	b, err := json.Marshal(ForClass("p.A"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"class","name":"p.A"}`, string(b))

	var h ElementHandle
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"type-parameter","name":"p.A!T"}`), &h))
	assert.Equal(t, ForTypeParameter(ForClass("p.A"), "T"), h)
}

func TestFromElement_RoundTrip(t *testing.T) {
	svc, _ := newSample(t)
	run(t, svc, func(snap *compiler.Snapshot) {
		members := snap.TypeElement("com.example.Members")
		require.NotNil(t, members)

		var els []*compiler.Element
		els = append(els, members)
		els = append(els, members.Enclosed()...)
		els = append(els, members.TypeParameters()...)
		for _, m := range members.Enclosed() {
			els = append(els, m.TypeParameters()...)
		}
		for _, el := range els {
			h, ok := FromElement(el)
			require.True(t, ok, el.SimpleName())
			back, ok := h.Resolve(snap)
			require.True(t, ok, h.Key())
			assert.True(t, back.Same(el), h.Key())
		}
	})
}

func TestFromElement_Encodings(t *testing.T) {
	svc, _ := newSample(t)
	run(t, svc, func(snap *compiler.Snapshot) {
		members := snap.TypeElement("com.example.Members")
		var got []string
		for _, m := range members.Enclosed() {
			if m.Kind() == compiler.KindConstructor || m.SimpleName() == "first" || m.SimpleName() == "map" {
				h, _ := FromElement(m)
				got = append(got, h.QualifiedName)
			}
		}
		assert.Equal(t, []string{
			"com.example.Members#<init>()",
			"com.example.Members#<init>(java.lang.String,int[])",
			"com.example.Members#first(java.util.List)",
			"com.example.Members#map(java.util.Map)",
		}, got)

		pkg, ok := FromElement(snap.PackageElement("com.example"))
		require.True(t, ok)
		assert.Equal(t, ForPackage("com.example"), pkg)

		param := members.Enclosed()
		for _, m := range param {
			if m.SimpleName() == "first" {
				_, ok := FromElement(m.Parameters()[0])
				assert.False(t, ok, "value parameters have no handle")
			}
		}
	})
}

func TestResolve_OverloadsByErasure(t *testing.T) {
	dir := javatest.WriteProject(t, map[string]string{
		"p/O.java": `package p;
public class O {
    public void m(int a) {}
    public void m(String a) {}
    public void m(int a, int b) {}
}
`,
	})
	svc, err := compiler.New(compiler.Paths{Sources: []string{dir}})
	require.NoError(t, err)
	defer svc.Close()

	run(t, svc, func(snap *compiler.Snapshot) {
		owner := ForClass("p.O")
		for _, sig := range [][]string{{"int"}, {"java.lang.String"}, {"int", "int"}} {
			el, ok := ForMethod(owner, "m", sig...).Resolve(snap)
			require.True(t, ok, sig)
			h, _ := FromElement(el)
			assert.Equal(t, sig, h.ParameterErasures())
		}
		_, ok := ForMethod(owner, "m", "long").Resolve(snap)
		assert.False(t, ok, "ambiguous arity with no matching erasure is absent")
		_, ok = ForMethod(owner, "m").Resolve(snap)
		assert.False(t, ok)
		_, ok = ForField(owner, "m").Resolve(snap)
		assert.False(t, ok)
	})
}

func TestResolve_IdentityStability(t *testing.T) {
	svc, _ := newSample(t)
	handles := []ElementHandle{
		ForClass("com.example.Outer.Middle.Inner"),
		ForField(ForClass("com.example.Members"), "label"),
		ForMethod(ForClass("com.example.Members"), "helper"),
		ForField(ForClass("com.example.Level"), "HIGH"),
		ForPackage("com.example.util"),
	}
	type facts struct {
		name string
		kind string
		mods []string
	}
	snapshotFacts := func() []facts {
		var out []facts
		run(t, svc, func(snap *compiler.Snapshot) {
			for _, h := range handles {
				el, ok := h.Resolve(snap)
				require.True(t, ok, h.Key())
				out = append(out, facts{el.SimpleName(), el.Kind(), el.Modifiers()})
			}
		})
		return out
	}
	assert.Equal(t, snapshotFacts(), snapshotFacts())
}

func TestResolve_AbsenceMonotonic(t *testing.T) {
	svc, dir := newSample(t)
	plain := ForClass("com.example.Plain")
	run(t, svc, func(snap *compiler.Snapshot) {
		_, ok := plain.Resolve(snap)
		assert.True(t, ok)
	})

	require.NoError(t, os.Remove(filepath.Join(dir, "com", "example", "Plain.java")))
	for range 2 {
		run(t, svc, func(snap *compiler.Snapshot) {
			el, ok := plain.Resolve(snap)
			assert.False(t, ok)
			assert.Nil(t, el)
		})
	}
}

func TestTypeHandle_RoundTrip(t *testing.T) {
	svc, _ := newSample(t)
	run(t, svc, func(snap *compiler.Snapshot) {
		box := snap.TypeElement("com.example.util.Box")
		members := snap.TypeElement("com.example.Members")
		var types []compiler.TypeMirror
		for _, m := range box.Enclosed() {
			if m.Kind() == compiler.KindField {
				types = append(types, m.Type())
			}
		}
		for _, m := range members.Enclosed() {
			if m.Kind() == compiler.KindMethod {
				types = append(types, m.ReturnType())
				for _, p := range m.Parameters() {
					types = append(types, p.Type())
				}
			}
		}
		for _, nt := range types {
			h := FromType(nt)
			require.False(t, h.IsZero(), nt.String())
			back, ok := h.Resolve(snap)
			require.True(t, ok, h.Key())
			assert.True(t, FromType(back).Equal(h), h.Key())
		}
	})
}

func TestTypeHandle_Shapes(t *testing.T) {
	svc, _ := newSample(t)
	run(t, svc, func(snap *compiler.Snapshot) {
		members := snap.TypeElement("com.example.Members")
		var first, mapM *compiler.Element
		for _, m := range members.Enclosed() {
			switch m.SimpleName() {
			case "first":
				first = m
			case "map":
				mapM = m
			}
		}

		ret := FromType(first.ReturnType())
		assert.Equal(t, TypeVariable, ret.Shape)
		assert.Equal(t, ForClass("com.example.Members"), ret.Element)
		assert.Equal(t, 0, ret.Index)
		assert.Equal(t, "T", ret.String())

		list := FromType(first.Parameters()[0].Type())
		assert.Equal(t, Declared, list.Shape)
		require.Len(t, list.Args, 1)
		assert.Equal(t, Wildcard, list.Args[0].Shape)
		assert.False(t, list.Args[0].Super)
		assert.Equal(t, "java.util.List<? extends T>", list.String())

		r := FromType(mapM.ReturnType())
		assert.Equal(t, Method, r.Element.Kind)
		resolved, ok := r.Resolve(snap)
		require.True(t, ok)
		assert.Equal(t, "R", resolved.String())
	})
}

func TestTypeHandle_EqualityAndKey(t *testing.T) {
	str := DeclaredOf(ForClass("java.lang.String"))
	integer := DeclaredOf(ForClass("java.lang.Integer"))
	mapSI := DeclaredOf(ForClass("java.util.Map"), str, integer)
	mapIS := DeclaredOf(ForClass("java.util.Map"), integer, str)

	assert.True(t, mapSI.Equal(DeclaredOf(ForClass("java.util.Map"), str, integer)))
	assert.False(t, mapSI.Equal(mapIS), "argument order is significant")
	assert.Equal(t, "java.util.Map<java.lang.String, java.lang.Integer>", mapSI.String())

	assert.Equal(t, "int[][]", ArrayOf(ArrayOf(PrimitiveOf("int"))).String())
	assert.Equal(t, "?", WildcardOf(nil, true).String())
	assert.False(t, WildcardOf(nil, true).Super)
	assert.Equal(t, "? super java.lang.String", WildcardOf(&str, true).String())
	assert.False(t, WildcardOf(&str, true).Equal(WildcardOf(&str, false)))

	tv := TypeVariableOf(ForClass("p.A"), 0, "T")
	renamed := TypeVariableOf(ForClass("p.A"), 0, "U")
	assert.True(t, tv.Equal(renamed), "type variables are identified by position")
	assert.False(t, tv.Equal(TypeVariableOf(ForClass("p.A"), 1, "T")))

	assert.True(t, TypeHandle{}.IsZero())
}

func TestTypeHandle_ResolveAbsentParts(t *testing.T) {
	svc, _ := newSample(t)
	run(t, svc, func(snap *compiler.Snapshot) {
		missing := DeclaredOf(ForClass("com.example.Gone"))
		_, ok := missing.Resolve(snap)
		assert.False(t, ok)

		list := DeclaredOf(ForClass("java.util.List"), missing)
		_, ok = list.Resolve(snap)
		assert.False(t, ok)

		_, ok = ArrayOf(missing).Resolve(snap)
		assert.False(t, ok)

		_, ok = TypeVariableOf(ForClass("com.example.Members"), 3, "X").Resolve(snap)
		assert.False(t, ok)

		prim, ok := PrimitiveOf("void").Resolve(snap)
		require.True(t, ok)
		assert.Equal(t, "void", prim.String())
	})
}
