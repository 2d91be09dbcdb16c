package asm

import (
	"bufio"
	"fmt"
	"io"
)

// Write serializes the whole store to out in the textual format understood
// by the external assembler. It performs a single linear pass;
// I/O errors are returned to the caller (the only in-band error kind this
// layer produces — everything else is a precondition panic).
func (s *Store) Write(out io.Writer) error {
	w := bufio.NewWriter(out)
	for i := range s.elements {
		if err := writeElement(w, &s.elements[i]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeElement(w *bufio.Writer, e *Element) error {
	switch e.Kind {
	case Instr:
		return writeInstr(w, e)
	case Label:
		return writeLabel(w, e)
	case InlineAsm:
		return writeInlineAsm(w, e)
	case Comment:
		return writeComment(w, e)
	case Separator:
		_, err := fmt.Fprintf(w, "\n*****\n\n")
		return err
	case Include:
		_, err := fmt.Fprintf(w, "\tINCLUDE %s\n", e.Field0)
		return err
	case FunctionStart:
		_, err := fmt.Fprintf(w, "* FUNCTION %s(): defined at %s\n", e.Field0, e.Field1)
		return err
	case FunctionEnd:
		if _, err := fmt.Fprintf(w, "* END FUNCTION %s\n", e.Field0); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "funcend_%s\tEQU\t*\n", e.Field0); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "funcsize_%s\tEQU\tfuncend_%s-%s\n", e.Field0, e.Field0, e.Field0)
		return err
	case SectionStart:
		_, err := fmt.Fprintf(w, "\n\tSECTION %s\n\n", e.Field0)
		return err
	case SectionEnd:
		_, err := fmt.Fprintf(w, "\n\tENDSECTION\n\n")
		return err
	case Export:
		_, err := fmt.Fprintf(w, "%s\tEXPORT\n", e.Field0)
		return err
	case Import:
		_, err := fmt.Fprintf(w, "%s\tIMPORT\n", e.Field0)
		return err
	case End:
		_, err := fmt.Fprintf(w, "\tEND\n")
		return err
	default:
		return fmt.Errorf("asm: unknown element kind %v", e.Kind)
	}
}

func writeInstr(w *bufio.Writer, e *Element) error {
	if e.Field2 == "" {
		_, err := fmt.Fprintf(w, "\t%s\t%s\n", e.Field0, e.Field1)
		return err
	}
	// An extra tab keeps short operands from pushing the comment out of
	// its usual column.
	sep := "\t"
	if len(e.Field1) < 8 {
		sep = "\t\t"
	}
	_, err := fmt.Fprintf(w, "\t%s\t%s%s%s\n", e.Field0, e.Field1, sep, e.Field2)
	return err
}

func writeLabel(w *bufio.Writer, e *Element) error {
	if e.Field1 == "" {
		_, err := fmt.Fprintf(w, "%s\tEQU\t*\n", e.Field0)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\tEQU\t*\t\t%s\n", e.Field0, e.Field1)
	return err
}

func writeInlineAsm(w *bufio.Writer, e *Element) error {
	if _, err := fmt.Fprintf(w, "* Inline assembly:\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n", e.Field0); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "* End of inline assembly.\n")
	return err
}

func writeComment(w *bufio.Writer, e *Element) error {
	_, err := fmt.Fprintf(w, "*\t%s\n", e.Field0)
	return err
}
