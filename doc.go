// Package interop answers questions about Java declarations for an analyzer
// that models them in its own terms. Classes, members, packages, type
// parameters and type uses are exposed as lightweight adapters that carry
// only a durable handle; every accessor re-resolves the handle in a fresh
// compilation snapshot, so adapters stay valid across source edits and
// session rebuilds.
//
// # Sessions
//
// A [Bridge] keeps one compilation session per project, built on first use
// from the lookup paths a [ClasspathProvider] reports. [Bridge.Invalidate]
// drops a session; the next query rebuilds it, while queries already running
// finish against the old one. [Bridge.WatchConfig]
// invalidates every session when a configuration file changes.
//
// # Usage
//
//	b := interop.New(config.NewProvider("interop.yaml", logger))
//	defer b.Close()
//
//	p := b.Project("app").WithContext(ctx)
//	cls, err := p.FindClass("com.example.Outer$Inner")
//	if err != nil || cls == nil { ... }
//	supers, err := cls.Supertypes()
//
// An accessor whose element no longer exists returns a zero value and a nil
// error. Asking a question that does not apply to an element, such as the
// return type of a field, fails with an error wrapping
// [ErrContractViolation].
package interop
