// Package scripts bundles Risor scripts that report on reflected PHP code.
// Run them with `phpreflect script NAME`; members.risor is a library the
// others import.
package scripts

import "embed"

//go:embed *.risor
var FS embed.FS
