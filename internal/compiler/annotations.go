package compiler

// AnnotationValue is the value of one annotation element. The concrete types
// are ConstantValue, ClassValue, ReferenceValue, *AnnotationMirror,
// ArrayValue and UnresolvedValue.
type AnnotationValue interface {
	annotationValue()
}

// AnnotationMirror is one annotation use with its explicitly written
// element values, in source order.
type AnnotationMirror struct {
	Type   TypeMirror // *DeclaredType, or *ErrorType when the name does not resolve
	Values []ElementValue
}

// ElementValue pairs an annotation element name with its value.
type ElementValue struct {
	Name  string
	Value AnnotationValue
}

// Value returns the explicitly written value of the named element.
func (a *AnnotationMirror) Value(name string) (AnnotationValue, bool) {
	for _, v := range a.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// TypeElement returns the annotation type declaration, or nil when its name
// did not resolve.
func (a *AnnotationMirror) TypeElement() *Element {
	if dt, ok := a.Type.(*DeclaredType); ok {
		return dt.Element
	}
	return nil
}

// ConstantValue is a primitive or string constant. Value holds int32, int64,
// float32, float64, rune, bool, string, or nil for null.
type ConstantValue struct {
	Value any
}

// ClassValue is a class literal such as String.class.
type ClassValue struct {
	Type TypeMirror
}

// ReferenceValue names an enum constant or a constant field.
type ReferenceValue struct {
	Element *Element
}

type ArrayValue struct {
	Items []AnnotationValue
}

// UnresolvedValue is an expression the front end does not evaluate, or a
// name that does not resolve. Text is the source text.
type UnresolvedValue struct {
	Text string
}

func (ConstantValue) annotationValue()     {}
func (ClassValue) annotationValue()        {}
func (ReferenceValue) annotationValue()    {}
func (*AnnotationMirror) annotationValue() {}
func (ArrayValue) annotationValue()        {}
func (UnresolvedValue) annotationValue()   {}

// annotationMirror resolves an annotation written on ctx. Annotations on a
// class are resolved in the scope enclosing the class.
func (s *Snapshot) annotationMirror(ctx *Element, name string, args []NamedValue) *AnnotationMirror {
	header := ctx != nil && ctx.row != nil && IsClassKind(ctx.row.Kind)
	m := &AnnotationMirror{}
	if el := s.resolveClassName(ctx, name, header); el != nil {
		m.Type = &DeclaredType{Element: el}
	} else {
		m.Type = &ErrorType{Name: name}
	}
	for _, a := range args {
		m.Values = append(m.Values, ElementValue{Name: a.Name, Value: s.annotationValue(ctx, a.Value)})
	}
	return m
}

func (s *Snapshot) annotationValue(ctx *Element, v *ValueSyntax) AnnotationValue {
	if v == nil {
		return UnresolvedValue{}
	}
	switch v.Kind {
	case valueLiteral:
		if val, ok := literalValue(v.Lit, v.Text); ok {
			return ConstantValue{Value: val}
		}
	case valueClass:
		if t := s.resolveType(ctx, v.Type, false); t != nil {
			return ClassValue{Type: t}
		}
	case valueName:
		if el := s.resolveReference(ctx, v.Text); el != nil {
			return ReferenceValue{Element: el}
		}
	case valueAnnotation:
		return s.annotationMirror(ctx, v.Name, v.Args)
	case valueArray:
		arr := ArrayValue{Items: make([]AnnotationValue, 0, len(v.Items))}
		for _, item := range v.Items {
			arr.Items = append(arr.Items, s.annotationValue(ctx, item))
		}
		return arr
	}
	return UnresolvedValue{Text: v.Text}
}
