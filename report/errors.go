package report

import "fmt"

// Kind tags the seven error kinds spec.md §7 enumerates.
type Kind int

const (
	KindType Kind = iota
	KindPhase
	KindStencil
	KindArity
	KindMalformedProgram
	KindUnsupportedBackend
	KindRuntimeAssertion
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "TypeError"
	case KindPhase:
		return "PhaseError"
	case KindStencil:
		return "StencilError"
	case KindArity:
		return "ArityError"
	case KindMalformedProgram:
		return "MalformedProgram"
	case KindUnsupportedBackend:
		return "UnsupportedBackend"
	case KindRuntimeAssertion:
		return "RuntimeAssertion"
	default:
		return "Error"
	}
}

// CompileError is the single error type raised by every compile-time pass
// (specializer, checker, phase analyzer, recorder, lowerer). Its Kind
// selects which of spec.md §7's error kinds it represents.
type CompileError struct {
	Kind    Kind
	Message string
	Pos     *Position
}

func (e *CompileError) Error() string {
	if e.Pos == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
}

// TypeError constructs a KindType error with a formatted message.
// InvalidTypes below builds the fixed "invalid types" text.
func TypeError(pos *Position, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: KindType, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// InvalidTypes is the exact TypeError text spec.md §4.1/§6 pins down.
func InvalidTypes(pos *Position) *CompileError {
	return &CompileError{Kind: KindType, Message: "invalid types", Pos: pos}
}

func PhaseError(pos *Position, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: KindPhase, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func StencilError(pos *Position, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: KindStencil, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func ArityError(pos *Position, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: KindArity, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func MalformedProgram(pos *Position, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: KindMalformedProgram, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func UnsupportedBackend(pos *Position, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: KindUnsupportedBackend, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func RuntimeAssertion(pos *Position, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: KindRuntimeAssertion, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Raise panics with a *CompileError. Passes are written to call Raise and
// let Catch (see api.go) turn the panic back into a reported error at the
// nearest pass boundary, mirroring the teacher's Raise/CatchErrors pairing.
func Raise(err *CompileError) {
	panic(err)
}
