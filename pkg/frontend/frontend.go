// Package frontend is a deliberately thin line-oriented assembly reader:
// enough to drive emit.Emitter end to end from a text source so the CLI
// has something real to compile, without attempting the C tokenizer,
// preprocessor, or expression parser a full compiler front end would need
// (a full C front end is out of scope here).
//
// Grounded on cmd/z80opt/main.go parseAssembly/
// parseSingleInstruction (split-on-delimiter, per-line dispatch). Parsing
// stops at the first line that does not parse, with an error naming that
// line's number.
package frontend

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sarrazip/cmoc6809/pkg/emit"
)

// Read parses one function body written as simple line-oriented assembly
// text and emits it through e. Accepted line shapes:
//
//	; a comment
//	label:
//	MNEMONIC operand        ; trailing comment
//	MNEMONIC                ; no-operand form
//
// There is no in-source function delimiter: a line of just "---" is read
// as an instruction like any other mnemonic. The caller names the function
// via functionID (Read emits exactly one function's
// FunctionStart/FunctionEnd pair).
func Read(r io.Reader, e emit.Emitter, functionID string) error {
	e.EmitFunctionStart(functionID, "source")
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := readLine(e, line); err != nil {
			return fmt.Errorf("frontend: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("frontend: %w", err)
	}
	e.EmitFunctionEnd(functionID, "source")
	return nil
}

func readLine(e emit.Emitter, line string) error {
	if strings.HasPrefix(line, ";") {
		e.AppendComment(strings.TrimSpace(strings.TrimPrefix(line, ";")))
		return nil
	}
	if strings.HasSuffix(line, ":") {
		name := strings.TrimSuffix(line, ":")
		if name == "" {
			return fmt.Errorf("empty label")
		}
		e.AppendLabel(name, "")
		return nil
	}

	code, comment := splitComment(line)
	opcode, operand := splitMnemonic(code)
	if opcode == "" {
		return fmt.Errorf("cannot parse %q", line)
	}
	e.AppendInstr(opcode, operand, comment)
	return nil
}

func splitComment(line string) (code, comment string) {
	if idx := strings.Index(line, ";"); idx >= 0 {
		return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:])
	}
	return strings.TrimSpace(line), ""
}

func splitMnemonic(code string) (opcode, operand string) {
	fields := strings.SplitN(code, " ", 2)
	if len(fields) == 0 {
		return "", ""
	}
	opcode = strings.ToUpper(strings.TrimSpace(fields[0]))
	if len(fields) == 2 {
		operand = strings.TrimSpace(fields[1])
	}
	return opcode, operand
}
