// Package sim implements the symbolic 6809 CPU simulator: a byte/word-level
// interpreter over possibly-known register and stack values, forward-
// simulating one straight-line region of code and keeping a
// producer-to-consumers map (State.RecordUse/UsesOf). Process records a
// consumer only where TFR copies an 8-bit register; other register and
// stack reads are not recorded.
//
// Grounded on original_source/src/Pseudo6809.h (PossiblyKnownVal,
// Pseudo6809Registers, Pseudo6809::process), translated from C++ templates
// to Go generics, and on pkg/cpu.Exec's dispatch-by-switch
// shape (pkg/cpu/exec.go) for the concrete per-opcode update logic.
package sim

// Unsigned is the constraint satisfied by the two value widths the
// simulator tracks: 8-bit register/stack bytes and 16-bit register pairs.
type Unsigned interface {
	~uint8 | ~uint16
}

// Known is a value paired with whether it is statically known, and the
// element-store index of the instruction that produced it. Producer2 is
// set when the value was assembled from two halves (e.g. a 16-bit value
// built from two 8-bit pushes); -1 means "not applicable".
type Known[T Unsigned] struct {
	Val       T
	KnownFlag bool
	Producer  int
	Producer2 int
}

// Unknown returns a Known value with KnownFlag=false and no producer.
func Unknown[T Unsigned]() Known[T] {
	return Known[T]{Producer: -1, Producer2: -1}
}

// KnownVal returns a known value produced by the instruction at index.
func KnownVal[T Unsigned](v T, index int) Known[T] {
	return Known[T]{Val: v, KnownFlag: true, Producer: index, Producer2: -1}
}

func sameProducer(a, b int) int {
	if a == b {
		return a
	}
	return -1
}

// Add, Sub, And, Or, Xor, Not, Neg, Asl, Asr are the direct idiomatic
// substitution for Pseudo6809.h's operator overloads — Go has no operator
// overloading, so each becomes a free function over Known[T].

func Add[T Unsigned](a, b Known[T]) Known[T] {
	return Known[T]{Val: a.Val + b.Val, KnownFlag: a.KnownFlag && b.KnownFlag,
		Producer: sameProducer(a.Producer, b.Producer), Producer2: -1}
}

func Sub[T Unsigned](a, b Known[T]) Known[T] {
	return Known[T]{Val: a.Val - b.Val, KnownFlag: a.KnownFlag && b.KnownFlag,
		Producer: sameProducer(a.Producer, b.Producer), Producer2: -1}
}

// And implements Kleene-style refinement: AND with a
// known zero is a known zero regardless of the other operand.
func And[T Unsigned](a, b Known[T]) Known[T] {
	v := a.Val & b.Val
	known := (a.KnownFlag && b.KnownFlag) ||
		(a.KnownFlag && a.Val == 0) ||
		(b.KnownFlag && b.Val == 0)
	return Known[T]{Val: v, KnownFlag: known, Producer: sameProducer(a.Producer, b.Producer), Producer2: -1}
}

// Or implements Kleene-style refinement: OR with a known
// all-ones value is known all-ones regardless of the other operand.
func Or[T Unsigned](a, b Known[T]) Known[T] {
	v := a.Val | b.Val
	allOnes := ^T(0)
	known := (a.KnownFlag && b.KnownFlag) ||
		(a.KnownFlag && a.Val == allOnes) ||
		(b.KnownFlag && b.Val == allOnes)
	return Known[T]{Val: v, KnownFlag: known, Producer: sameProducer(a.Producer, b.Producer), Producer2: -1}
}

func Xor[T Unsigned](a, b Known[T]) Known[T] {
	return Known[T]{Val: a.Val ^ b.Val, KnownFlag: a.KnownFlag && b.KnownFlag,
		Producer: sameProducer(a.Producer, b.Producer), Producer2: -1}
}

func Not[T Unsigned](a Known[T]) Known[T] {
	return Known[T]{Val: ^a.Val, KnownFlag: a.KnownFlag, Producer: a.Producer, Producer2: -1}
}

func Neg[T Unsigned](a Known[T]) Known[T] {
	return Known[T]{Val: -a.Val, KnownFlag: a.KnownFlag, Producer: a.Producer, Producer2: -1}
}

func Asl[T Unsigned](a Known[T]) Known[T] {
	return Known[T]{Val: a.Val << 1, KnownFlag: a.KnownFlag, Producer: a.Producer, Producer2: -1}
}

// Asr performs an arithmetic shift right, preserving the sign bit of an
// 8-bit value (mirrors PossiblyKnownVal<T>::asr, which only ever operates
// on uint8_t in the original).
func Asr(a Known[uint8]) Known[uint8] {
	signBit := a.Val & 0x80
	return Known[uint8]{Val: signBit | (a.Val >> 1), KnownFlag: a.KnownFlag, Producer: a.Producer, Producer2: -1}
}

// Pair16 assembles a 16-bit Known value from two 8-bit halves (e.g. two
// consecutive byte pushes), recording both producers for later cross-
// reference lookups.
func Pair16(hi, lo Known[uint8]) Known[uint16] {
	return Known[uint16]{
		Val:       uint16(hi.Val)<<8 | uint16(lo.Val),
		KnownFlag: hi.KnownFlag && lo.KnownFlag,
		Producer:  hi.Producer,
		Producer2: lo.Producer,
	}
}
