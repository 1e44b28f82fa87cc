package domain

// Stream identifies one of a process's output streams.
type Stream int

const (
	// Stdout is the process's standard output.
	Stdout Stream = iota + 1
	// Stderr is the process's standard error.
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}
