package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/risor-io/risor/object"

	"github.com/jward/interop"
)

// Bridge host functions take and return element keys ("class:a.B",
// "method:a.B#m(int)") so scripts can chain queries without holding Go
// values. Missing elements come back as nil or an empty list.

type hostFn func(p *interop.Project, args []object.Object) (object.Object, error)

func bridgeFuncs(p *interop.Project) map[string]object.Object {
	fns := map[string]struct {
		arity int
		fn    hostFn
	}{
		"find_class":      {1, findClass},
		"find_package":    {1, findPackage},
		"simple_name":     {1, simpleName},
		"element_info":    {1, elementInfo},
		"supertypes":      {1, supertypes},
		"inner_classes":   {1, innerClasses},
		"methods":         {1, methods},
		"constructors":    {1, constructors},
		"fields":          {1, fields},
		"enum_constants":  {1, enumConstants},
		"type_parameters": {1, typeParameters},
		"parameters":      {1, parameters},
		"return_type":     {1, returnType},
		"field_type":      {1, fieldType},
		"modifiers":       {1, modifiers},
		"visibility":      {1, visibility},
		"nested_id":       {1, nestedID},
		"annotations":     {1, annotations},
	}
	out := make(map[string]object.Object, len(fns))
	for name, f := range fns {
		out[name] = object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
			if len(args) != f.arity {
				return object.NewArgsError(name, f.arity, len(args))
			}
			res, err := f.fn(p.WithContext(ctx), args)
			if err != nil {
				return object.Errorf("%s: %v", name, err)
			}
			return res
		})
	}
	return out
}

func stringArg(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

func elementArg(p *interop.Project, obj object.Object) (interop.Adapter, error) {
	key, err := stringArg(obj)
	if err != nil {
		return nil, err
	}
	h, err := interop.ParseHandle(key)
	if err != nil {
		return nil, err
	}
	return p.Element(h)
}

func classArg(p *interop.Project, obj object.Object) (*interop.Classifier, error) {
	a, err := elementArg(p, obj)
	if err != nil {
		return nil, err
	}
	c, ok := a.(*interop.Classifier)
	if !ok {
		return nil, fmt.Errorf("%s is not a class", a.Key())
	}
	return c, nil
}

func findClass(p *interop.Project, args []object.Object) (object.Object, error) {
	name, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	c, err := p.FindClass(name)
	if err != nil || c == nil {
		return object.Nil, err
	}
	return object.NewString(c.Key()), nil
}

func findPackage(p *interop.Project, args []object.Object) (object.Object, error) {
	name, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	pkg, err := p.FindPackage(name)
	if err != nil || pkg == nil {
		return object.Nil, err
	}
	return object.NewString(pkg.Key()), nil
}

func simpleName(p *interop.Project, args []object.Object) (object.Object, error) {
	a, err := elementArg(p, args[0])
	if err != nil {
		return nil, err
	}
	name, err := a.SimpleName()
	if err != nil || name == "" {
		return object.Nil, err
	}
	return object.NewString(name), nil
}

func elementInfo(p *interop.Project, args []object.Object) (object.Object, error) {
	a, err := elementArg(p, args[0])
	if err != nil {
		return nil, err
	}
	i, ok := a.(interface {
		Info() (interop.ElementInfo, error)
	})
	if !ok {
		return object.Nil, nil
	}
	info, err := i.Info()
	if err != nil || info.Kind == "" {
		return object.Nil, err
	}
	return jsonObject(info)
}

func supertypes(p *interop.Project, args []object.Object) (object.Object, error) {
	c, err := classArg(p, args[0])
	if err != nil {
		return nil, err
	}
	types, err := c.Supertypes()
	if err != nil {
		return nil, err
	}
	return typeList(types), nil
}

func innerClasses(p *interop.Project, args []object.Object) (object.Object, error) {
	c, err := classArg(p, args[0])
	if err != nil {
		return nil, err
	}
	return keys(c.InnerClasses())
}

func methods(p *interop.Project, args []object.Object) (object.Object, error) {
	c, err := classArg(p, args[0])
	if err != nil {
		return nil, err
	}
	return keys(c.Methods())
}

func constructors(p *interop.Project, args []object.Object) (object.Object, error) {
	c, err := classArg(p, args[0])
	if err != nil {
		return nil, err
	}
	return keys(c.Constructors())
}

func fields(p *interop.Project, args []object.Object) (object.Object, error) {
	c, err := classArg(p, args[0])
	if err != nil {
		return nil, err
	}
	return keys(c.Fields())
}

func enumConstants(p *interop.Project, args []object.Object) (object.Object, error) {
	c, err := classArg(p, args[0])
	if err != nil {
		return nil, err
	}
	return keys(c.EnumConstants())
}

func typeParameters(p *interop.Project, args []object.Object) (object.Object, error) {
	a, err := elementArg(p, args[0])
	if err != nil {
		return nil, err
	}
	g, ok := a.(interface {
		TypeParameters() ([]*interop.TypeParameter, error)
	})
	if !ok {
		return nil, fmt.Errorf("%s has no type parameters", a.Key())
	}
	return keys(g.TypeParameters())
}

func parameters(p *interop.Project, args []object.Object) (object.Object, error) {
	a, err := elementArg(p, args[0])
	if err != nil {
		return nil, err
	}
	e, ok := a.(interface {
		ValueParameters() ([]*interop.ValueParameter, error)
	})
	if !ok {
		return nil, fmt.Errorf("%s has no parameters", a.Key())
	}
	params, err := e.ValueParameters()
	if err != nil {
		return nil, err
	}
	out := make([]object.Object, len(params))
	for i, vp := range params {
		out[i] = object.NewMap(map[string]object.Object{
			"name":    object.NewString(vp.Name),
			"type":    object.NewString(vp.Type.String()),
			"varargs": object.NewBool(vp.Varargs),
			"index":   object.NewInt(int64(vp.Index)),
		})
	}
	return object.NewList(out), nil
}

func returnType(p *interop.Project, args []object.Object) (object.Object, error) {
	a, err := elementArg(p, args[0])
	if err != nil {
		return nil, err
	}
	m, ok := a.(*interop.Method)
	if !ok {
		return nil, fmt.Errorf("%s is not a method", a.Key())
	}
	return typeString(m.ReturnType())
}

func fieldType(p *interop.Project, args []object.Object) (object.Object, error) {
	a, err := elementArg(p, args[0])
	if err != nil {
		return nil, err
	}
	f, ok := a.(*interop.Field)
	if !ok {
		return nil, fmt.Errorf("%s is not a field", a.Key())
	}
	return typeString(f.Type())
}

type modifierHolder interface {
	Modifiers() (interop.ModifierSet, error)
	Visibility() (interop.Visibility, error)
}

func modifierArg(p *interop.Project, obj object.Object) (modifierHolder, error) {
	a, err := elementArg(p, obj)
	if err != nil {
		return nil, err
	}
	m, ok := a.(modifierHolder)
	if !ok {
		return nil, fmt.Errorf("%s has no modifiers", a.Key())
	}
	return m, nil
}

func modifiers(p *interop.Project, args []object.Object) (object.Object, error) {
	m, err := modifierArg(p, args[0])
	if err != nil {
		return nil, err
	}
	set, err := m.Modifiers()
	if err != nil {
		return nil, err
	}
	return jsonObject(set)
}

func visibility(p *interop.Project, args []object.Object) (object.Object, error) {
	m, err := modifierArg(p, args[0])
	if err != nil {
		return nil, err
	}
	v, err := m.Visibility()
	if err != nil {
		return nil, err
	}
	return object.NewString(v.String()), nil
}

func nestedID(p *interop.Project, args []object.Object) (object.Object, error) {
	c, err := classArg(p, args[0])
	if err != nil {
		return nil, err
	}
	id, ok, err := c.NestedID()
	if err != nil || !ok {
		return object.Nil, err
	}
	names := make([]object.Object, len(id.Names))
	for i, n := range id.Names {
		names[i] = object.NewString(n)
	}
	return object.NewMap(map[string]object.Object{
		"package":     object.NewString(id.Package),
		"names":       object.NewList(names),
		"fq_name":     object.NewString(id.FqName()),
		"binary_name": object.NewString(id.BinaryName()),
	}), nil
}

func annotations(p *interop.Project, args []object.Object) (object.Object, error) {
	a, err := elementArg(p, args[0])
	if err != nil {
		return nil, err
	}
	h, ok := a.(interface {
		Annotations() ([]*interop.Annotation, error)
	})
	if !ok {
		return object.NewList(nil), nil
	}
	anns, err := h.Annotations()
	if err != nil {
		return nil, err
	}
	out := make([]object.Object, len(anns))
	for i, ann := range anns {
		args, err := jsonObject(ann.Arguments())
		if err != nil {
			return nil, err
		}
		out[i] = object.NewMap(map[string]object.Object{
			"type": object.NewString(ann.QualifiedName()),
			"args": args,
		})
	}
	return object.NewList(out), nil
}

func keys[A interop.Adapter](as []A, err error) (object.Object, error) {
	if err != nil {
		return nil, err
	}
	out := make([]object.Object, len(as))
	for i, a := range as {
		out[i] = object.NewString(a.Key())
	}
	return object.NewList(out), nil
}

func typeList(types []*interop.Type) object.Object {
	out := make([]object.Object, len(types))
	for i, t := range types {
		out[i] = object.NewString(t.String())
	}
	return object.NewList(out)
}

func typeString(t *interop.Type, err error) (object.Object, error) {
	if err != nil || t == nil {
		return object.Nil, err
	}
	return object.NewString(t.String()), nil
}

// jsonObject converts v to Risor values through its JSON form.
func jsonObject(v any) (object.Object, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	return goValueToObject(decoded), nil
}

func goValueToObject(v any) object.Object {
	switch val := v.(type) {
	case nil:
		return object.Nil
	case bool:
		return object.NewBool(val)
	case string:
		return object.NewString(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return object.NewInt(int64(val))
		}
		return object.NewFloat(val)
	case []any:
		items := make([]object.Object, len(val))
		for i, item := range val {
			items[i] = goValueToObject(item)
		}
		return object.NewList(items)
	case map[string]any:
		m := make(map[string]object.Object, len(val))
		for k, item := range val {
			m[k] = goValueToObject(item)
		}
		return object.NewMap(m)
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}
