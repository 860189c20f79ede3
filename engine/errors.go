package engine

import "fmt"

// UnknownQueryKindError reports a wire.Query whose Kind the dispatcher does
// not recognize.
type UnknownQueryKindError struct{ Kind string }

func (e *UnknownQueryKindError) Error() string {
	return fmt.Sprintf("engine: unknown query kind %q", e.Kind)
}
