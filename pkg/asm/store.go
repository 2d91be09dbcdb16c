package asm

import "fmt"

// Store is the ordered, index-addressable element sequence that the front
// end appends to and the rewrite engine mutates in place. Indices are
// stable within a single rewrite pass: elements are never physically
// removed, only converted in place (comment-out / replace-with-instr).
//
// Grounded on ASMText's elements vector (original_source/src/ASMText.h)
// and on a preference for a single owning slice with index
// handles rather than pointer-linked nodes (pkg/result.Table holds its
// rules the same way).
type Store struct {
	elements    []Element
	sectionOpen string // non-empty iff a section is currently open
	labelTable  map[string]int
}

// NewStore returns an empty element store.
func NewStore() *Store {
	return &Store{labelTable: make(map[string]int)}
}

// Len returns the number of elements currently in the store.
func (s *Store) Len() int { return len(s.elements) }

// At returns the element at index i.
func (s *Store) At(i int) Element { return s.elements[i] }

// Elements returns the live backing slice. Callers must not retain it
// across a mutation that may grow the store (InsertInstr).
func (s *Store) Elements() []Element { return s.elements }

// LabelIndex returns the element-store index of a label, and whether it
// was found.
func (s *Store) LabelIndex(name string) (int, bool) {
	i, ok := s.labelTable[name]
	return i, ok
}

func (s *Store) append(e Element) int {
	s.elements = append(s.elements, e)
	if e.Kind == Label {
		s.labelTable[e.Field0] = len(s.elements) - 1
	}
	return len(s.elements) - 1
}

// AppendInstr appends an instruction element. Panics (precondition
// violation) if opcode is empty or if opcode requires a
// non-empty operand and none was given.
func (s *Store) AppendInstr(opcode, operand, comment string) int {
	if opcode == "" {
		panic("asm: AppendInstr called with empty opcode")
	}
	if MustHaveOperand(opcode) && operand == "" {
		panic(fmt.Sprintf("asm: opcode %q requires a non-empty operand", opcode))
	}
	return s.append(Element{Kind: Instr, Field0: opcode, Field1: operand, Field2: comment})
}

// AppendLabel appends a label element and registers it in the label table.
func (s *Store) AppendLabel(name, comment string) int {
	if name == "" {
		panic("asm: AppendLabel called with empty name")
	}
	return s.append(Element{Kind: Label, Field0: name, Field1: comment})
}

// AppendInlineAsm appends a raw inline-assembly blob.
func (s *Store) AppendInlineAsm(text string) int {
	return s.append(Element{Kind: InlineAsm, Field0: text})
}

// AppendComment appends a plain comment line.
func (s *Store) AppendComment(text string) int {
	return s.append(Element{Kind: Comment, Field0: text})
}

// AppendSeparator appends a blank/asterisks/blank separator.
func (s *Store) AppendSeparator() int {
	return s.append(Element{Kind: Separator})
}

// AppendInclude appends an INCLUDE directive.
func (s *Store) AppendInclude(path string) int {
	if path == "" {
		panic("asm: AppendInclude called with empty path")
	}
	return s.append(Element{Kind: Include, Field0: path})
}

// EmitFunctionStart records the start of a function's code.
func (s *Store) EmitFunctionStart(id, line string) int {
	s.labelTable = make(map[string]int) // labels are scoped to one function
	return s.append(Element{Kind: FunctionStart, Field0: id, Field1: line})
}

// EmitFunctionEnd records the end of a function's code.
func (s *Store) EmitFunctionEnd(id, line string) int {
	return s.append(Element{Kind: FunctionEnd, Field0: id, Field1: line})
}

// StartSection opens a named section. Returns an error — a semantic error
// surfaced to the user, not a panic — if a section is
// already open.
func (s *Store) StartSection(name string) error {
	if s.sectionOpen != "" {
		return fmt.Errorf("asm: starting section %q, but section %q already started", name, s.sectionOpen)
	}
	s.sectionOpen = name
	s.append(Element{Kind: SectionStart, Field0: name})
	return nil
}

// EndSection closes the currently open section.
func (s *Store) EndSection() error {
	if s.sectionOpen == "" {
		return fmt.Errorf("asm: ending section but none is open")
	}
	name := s.sectionOpen
	s.sectionOpen = ""
	s.append(Element{Kind: SectionEnd, Field0: name})
	return nil
}

// EmitExport appends an EXPORT directive.
func (s *Store) EmitExport(name string) int {
	return s.append(Element{Kind: Export, Field0: name})
}

// EmitImport appends an IMPORT directive.
func (s *Store) EmitImport(name string) int {
	return s.append(Element{Kind: Import, Field0: name})
}

// EmitEnd appends the file terminator.
func (s *Store) EmitEnd() int {
	return s.append(Element{Kind: End})
}

// ReplaceWithInstr converts the element at index into an Instr in place.
func (s *Store) ReplaceWithInstr(index int, opcode, operand, comment string) {
	if opcode == "" {
		panic("asm: ReplaceWithInstr called with empty opcode")
	}
	s.elements[index] = Element{Kind: Instr, Field0: opcode, Field1: operand, Field2: comment}
}

// CommentOut converts the element at index into a Comment carrying reason.
// This never physically removes the element — only comment-out and
// replace-with-instr mutate existing slots, preserving the store's stable-index
// invariant.
func (s *Store) CommentOut(index int, reason string) {
	s.elements[index] = Element{Kind: Comment, Field0: reason}
}

// InsertInstr inserts a new instruction element at index, shifting
// subsequent elements right. Callers must refresh any indices they hold
// beyond index.
func (s *Store) InsertInstr(index int, opcode, operand, comment string) int {
	if opcode == "" {
		panic("asm: InsertInstr called with empty opcode")
	}
	e := Element{Kind: Instr, Field0: opcode, Field1: operand, Field2: comment}
	s.elements = append(s.elements, Element{})
	copy(s.elements[index+1:], s.elements[index:])
	s.elements[index] = e
	// Label indices at or after 'index' have shifted; rebuild the table.
	for name, idx := range s.labelTable {
		if idx >= index {
			s.labelTable[name] = idx + 1
		}
	}
	return index
}

// RemoveLabel deletes a name from the label table (used when a label is
// commented out by the rewrite engine).
func (s *Store) RemoveLabel(name string) {
	delete(s.labelTable, name)
}

// RegisterLabel re-registers a label at the given index — used when the
// rewrite engine discovers a label it did not itself insert.
func (s *Store) RegisterLabel(name string, index int) {
	s.labelTable[name] = index
}

// Clone returns an independent copy of s, safe to mutate without
// affecting the original — used by pkg/selftest to try a rewrite rule and
// compare the result against the untouched original.
func (s *Store) Clone() *Store {
	c := &Store{
		elements:    append([]Element{}, s.elements...),
		sectionOpen: s.sectionOpen,
		labelTable:  make(map[string]int, len(s.labelTable)),
	}
	for k, v := range s.labelTable {
		c.labelTable[k] = v
	}
	return c
}
