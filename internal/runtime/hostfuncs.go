package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// Syntax host functions parse Java with tree-sitter and hand scripts
// proxied *sitter.Tree and *sitter.Node values.
//
//	parse(path)                 → Tree
//	parse_src(source)           → Tree
//	node_text(node)             → string
//	node_child(node, field)     → Node or nil
//	query(pattern, node)        → [{capture: Node}]

type syntaxFn func(ctx context.Context, trees *trees, args []object.Object) (object.Object, error)

func syntaxFuncs(t *trees) map[string]object.Object {
	fns := map[string]struct {
		arity int
		fn    syntaxFn
	}{
		"parse":      {1, parseFile},
		"parse_src":  {1, parseSrc},
		"node_text":  {1, nodeText},
		"node_child": {2, nodeChild},
		"query":      {2, queryNode},
	}
	out := make(map[string]object.Object, len(fns))
	for name, f := range fns {
		out[name] = object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
			if len(args) != f.arity {
				return object.NewArgsError(name, f.arity, len(args))
			}
			res, err := f.fn(ctx, t, args)
			if err != nil {
				return object.Errorf("%s: %v", name, err)
			}
			return res
		})
	}
	return out
}

// trees remembers the source of every tree parsed in a runtime. A node's
// text is only recoverable from that source, and the bindings give no way
// from a node back to its tree, so sources are keyed by root node. Root
// and Parent nodes are cached per tree, which keeps the pointer stable.
type trees struct {
	mu      sync.RWMutex
	sources map[*sitter.Node][]byte
}

func newTrees() *trees {
	return &trees{sources: make(map[*sitter.Node][]byte)}
}

func (t *trees) parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.sources[tree.RootNode()] = src
	t.mu.Unlock()
	return tree, nil
}

func (t *trees) source(node *sitter.Node) ([]byte, bool) {
	for node.Parent() != nil {
		node = node.Parent()
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	src, ok := t.sources[node]
	return src, ok
}

func nodeArg(obj object.Object) (*sitter.Node, error) {
	if p, ok := obj.(*object.Proxy); ok {
		if n, ok := p.Interface().(*sitter.Node); ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("expected node, got %s", obj.Type())
}

func sourcedNodeArg(t *trees, obj object.Object) (*sitter.Node, []byte, error) {
	n, err := nodeArg(obj)
	if err != nil {
		return nil, nil, err
	}
	src, ok := t.source(n)
	if !ok {
		return nil, nil, fmt.Errorf("node does not belong to a parsed tree")
	}
	return n, src, nil
}

func parseFile(ctx context.Context, t *trees, args []object.Object) (object.Object, error) {
	path, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return proxied(t.parse(ctx, src))
}

func parseSrc(ctx context.Context, t *trees, args []object.Object) (object.Object, error) {
	src, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	return proxied(t.parse(ctx, []byte(src)))
}

func nodeText(_ context.Context, t *trees, args []object.Object) (object.Object, error) {
	n, src, err := sourcedNodeArg(t, args[0])
	if err != nil {
		return nil, err
	}
	return object.NewString(n.Content(src)), nil
}

// nodeChild returns Risor nil for a missing field rather than a proxied nil
// pointer.
func nodeChild(_ context.Context, _ *trees, args []object.Object) (object.Object, error) {
	n, err := nodeArg(args[0])
	if err != nil {
		return nil, err
	}
	field, err := stringArg(args[1])
	if err != nil {
		return nil, err
	}
	child := n.ChildByFieldName(field)
	if child == nil {
		return object.Nil, nil
	}
	return object.NewProxy(child)
}

func queryNode(_ context.Context, t *trees, args []object.Object) (object.Object, error) {
	pattern, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	n, src, err := sourcedNodeArg(t, args[1])
	if err != nil {
		return nil, err
	}
	q, err := sitter.NewQuery([]byte(pattern), java.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	defer q.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, n)

	matches := []object.Object{}
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m = cursor.FilterPredicates(m, src)
		captures := make(map[string]object.Object, len(m.Captures))
		for _, c := range m.Captures {
			p, err := object.NewProxy(c.Node)
			if err != nil {
				return nil, err
			}
			captures[q.CaptureNameForId(c.Index)] = p
		}
		matches = append(matches, object.NewMap(captures))
	}
	return object.NewList(matches), nil
}

func proxied(tree *sitter.Tree, err error) (object.Object, error) {
	if err != nil {
		return nil, err
	}
	return object.NewProxy(tree)
}

// logObject is the script "log" global.
type logObject struct {
	log *slog.Logger
}

func (l *logObject) Debug(msg string) { l.log.Debug(msg) }
func (l *logObject) Info(msg string)  { l.log.Info(msg) }
func (l *logObject) Warn(msg string)  { l.log.Warn(msg) }
func (l *logObject) Error(msg string) { l.log.Error(msg) }
