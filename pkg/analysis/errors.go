package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrClassification = errors.New("powerflow: classification failed")
	ErrAssembly       = errors.New("powerflow: jacobian assembly failed")
	ErrSingularSystem = errors.New("powerflow: singular system")
)

// ClassificationError reports an inconsistent control configuration. It is
// fatal and raised before any residual evaluation.
type ClassificationError struct {
	Detail string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("powerflow: classification failed: %s", e.Detail)
}

func (e *ClassificationError) Unwrap() error { return ErrClassification }

func classifyErrf(format string, args ...any) *ClassificationError {
	return &ClassificationError{Detail: fmt.Sprintf(format, args...)}
}

// AssemblyError reports a defective Jacobian build. A symbolic failure is
// recovered through the numerical fallback; a failure of the fallback itself
// escapes the solve.
type AssemblyError struct {
	Detail string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("powerflow: jacobian assembly failed: %s", e.Detail)
}

func (e *AssemblyError) Unwrap() error { return ErrAssembly }

func assemblyErrf(format string, args ...any) *AssemblyError {
	return &AssemblyError{Detail: fmt.Sprintf(format, args...)}
}

// SingularSystemError reports that the linearized system could not be
// solved, even by the fallback strategy. Fatal.
type SingularSystemError struct {
	Iteration int
}

func (e *SingularSystemError) Error() string {
	return fmt.Sprintf("powerflow: singular system at iteration %d", e.Iteration)
}

func (e *SingularSystemError) Unwrap() error { return ErrSingularSystem }
