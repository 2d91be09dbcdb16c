// Package emit defines the narrow interface a front end needs against the
// element store: enough to emit one function's worth of code without
// depending on asm.Store's full surface (label tables, writer internals).
//
// Grounded on the pattern of small result-producing interfaces
// (pkg/result.Table is consumed through a handful of methods by
// cmd/z80opt/main.go rather than passed around as a concrete struct).
package emit

import "github.com/sarrazip/cmoc6809/pkg/asm"

// Emitter is the only door a front end uses to add to the element store —
// deliberately the full set asm.Store exposes for appending, so a front
// end never needs the rewrite-only mutators (ReplaceWithInstr, CommentOut,
// InsertInstr) that belong to pkg/rewrite instead.
type Emitter interface {
	AppendInstr(opcode, operand, comment string) int
	AppendLabel(name, comment string) int
	AppendInlineAsm(text string) int
	AppendComment(text string) int
	AppendSeparator() int
	AppendInclude(path string) int
	EmitFunctionStart(id, line string) int
	EmitFunctionEnd(id, line string) int
	StartSection(name string) error
	EndSection() error
	EmitExport(name string) int
	EmitImport(name string) int
	EmitEnd() int
}

var _ Emitter = (*asm.Store)(nil)
