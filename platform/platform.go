// Package platform embeds a minimal set of java.* source stubs used as the
// boot lookup path when a project configures no platform of its own.
package platform

import "embed"

// FS holds the stubs laid out by package directory, e.g.
// java/lang/Object.java.
//
//go:embed java
var FS embed.FS
