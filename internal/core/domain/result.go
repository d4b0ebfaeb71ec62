package domain

// ExecResult is the outcome of one command invocation.
// A nil ExitCode means the code is unknown and success is assumed.
type ExecResult struct {
	ExitCode *int
	Stdout   string
	Stderr   string
}

// ExitCode returns a pointer to code, for building results.
func ExitCode(code int) *int {
	return &code
}

// Code returns the exit code, treating an unknown code as 0.
func (r *ExecResult) Code() int {
	if r == nil || r.ExitCode == nil {
		return 0
	}
	return *r.ExitCode
}

// Succeeded reports whether the command exited with 0 or an unknown code.
func (r *ExecResult) Succeeded() bool {
	return r.Code() == 0
}
