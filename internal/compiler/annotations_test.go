package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotations_ArgumentTree(t *testing.T) {
	svc := newSampleService(t)
	runAt(t, svc, PhaseFullyResolved, func(snap *Snapshot) {
		annotated := snap.TypeElement("com.example.Annotated")
		anns := annotated.Annotations()
		require.Len(t, anns, 2)

		info := anns[0]
		assert.Equal(t, "com.example.Info", info.Type.String())
		require.NotNil(t, info.TypeElement())
		assert.Equal(t, "java.lang.Deprecated", anns[1].Type.String())

		name, ok := info.Value("name")
		require.True(t, ok)
		assert.Equal(t, ConstantValue{Value: "widget"}, name)

		codes, ok := info.Value("codes")
		require.True(t, ok)
		assert.Equal(t, ArrayValue{Items: []AnnotationValue{
			ConstantValue{Value: int32(1)}, ConstantValue{Value: int32(2)}, ConstantValue{Value: int32(3)},
		}}, codes)

		tag, ok := info.Value("tag")
		require.True(t, ok)
		nested, ok := tag.(*AnnotationMirror)
		require.True(t, ok)
		assert.Equal(t, "com.example.Tag", nested.Type.String())
		inner, ok := nested.Value("value")
		require.True(t, ok)
		assert.Equal(t, ConstantValue{Value: "inner"}, inner)

		typ, ok := info.Value("type")
		require.True(t, ok)
		assert.Equal(t, "java.lang.String", typ.(ClassValue).Type.String())

		level, ok := info.Value("level")
		require.True(t, ok)
		ref := level.(ReferenceValue)
		assert.Equal(t, KindEnumConstant, ref.Element.Kind())
		assert.Equal(t, "HIGH", ref.Element.SimpleName())
		assert.Equal(t, "com.example.Level", ref.Element.Enclosing().QualifiedName())

		_, ok = info.Value("missing")
		assert.False(t, ok)
	})
}

func TestAnnotations_MembersAndParameters(t *testing.T) {
	svc := newSampleService(t)
	runAt(t, svc, PhaseFullyResolved, func(snap *Snapshot) {
		annotated := snap.TypeElement("com.example.Annotated")

		plain := member(t, annotated, KindMethod, "plain")
		anns := plain.Annotations()
		require.Len(t, anns, 1)
		assert.Empty(t, anns[0].Values)

		value := member(t, annotated, KindField, "value")
		anns = value.Annotations()
		require.Len(t, anns, 1)
		codes, _ := anns[0].Value("codes")
		assert.Equal(t, ConstantValue{Value: int32(7)}, codes)
		name, _ := anns[0].Value("name")
		assert.Equal(t, UnresolvedValue{Text: `"neg" + "ated"`}, name)

		ctor := member(t, annotated, KindConstructor, ConstructorName)
		params := ctor.Parameters()
		require.Len(t, params, 1)
		pAnns := params[0].Annotations()
		require.Len(t, pAnns, 1)
		assert.Equal(t, "com.example.Tag", pAnns[0].Type.String())
	})
}

func TestAnnotations_DefaultValues(t *testing.T) {
	svc := newSampleService(t)
	runAt(t, svc, PhaseFullyResolved, func(snap *Snapshot) {
		info := snap.TypeElement("com.example.Info")

		assert.Equal(t, ConstantValue{Value: "none"}, member(t, info, KindMethod, "name").DefaultValue())
		assert.Equal(t, ArrayValue{Items: []AnnotationValue{}}, member(t, info, KindMethod, "codes").DefaultValue())

		tag := member(t, info, KindMethod, "tag").DefaultValue().(*AnnotationMirror)
		v, _ := tag.Value("value")
		assert.Equal(t, ConstantValue{Value: "default"}, v)

		typ := member(t, info, KindMethod, "type").DefaultValue().(ClassValue)
		assert.Equal(t, "java.lang.Object", typ.Type.String())

		level := member(t, info, KindMethod, "level").DefaultValue().(ReferenceValue)
		assert.Equal(t, "LOW", level.Element.SimpleName())

		retention := info.Annotations()
		require.Len(t, retention, 1)
		policy, _ := retention[0].Value("value")
		assert.Equal(t, "RUNTIME", policy.(ReferenceValue).Element.SimpleName())

		tagType := snap.TypeElement("com.example.Tag")
		assert.Nil(t, member(t, tagType, KindMethod, "value").DefaultValue())
	})
}

func TestAnnotations_UnresolvedName(t *testing.T) {
	svc := newTestService(t, Paths{Sources: []string{writeProject(t, map[string]string{
		"p/A.java": "package p;\n@Nowhere(flag = SOMETHING)\npublic class A {}\n",
	})}})
	runAt(t, svc, PhaseFullyResolved, func(snap *Snapshot) {
		anns := snap.TypeElement("p.A").Annotations()
		require.Len(t, anns, 1)
		_, isErr := anns[0].Type.(*ErrorType)
		assert.True(t, isErr)
		assert.Nil(t, anns[0].TypeElement())
		flag, _ := anns[0].Value("flag")
		assert.Equal(t, UnresolvedValue{Text: "SOMETHING"}, flag)
	})
}
