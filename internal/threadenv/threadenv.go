// Package threadenv builds the thread-limit environment passed to every
// simulation subprocess. The numeric libraries inside the collaborators each
// honor a different variable, so all of them are set to the same budget.
package threadenv

import "strconv"

var limitVars = []string{
	"OMP_NUM_THREADS",
	"MKL_NUM_THREADS",
	"OPENBLAS_NUM_THREADS",
	"NUMEXPR_NUM_THREADS",
	"VECLIB_MAXIMUM_THREADS",
}

// Limits returns the thread-limit variables as KEY=VALUE pairs, all set to
// threads. The slice is appended to a subprocess's environment at launch
// rather than set process-wide, so the budget is explicit per launch. The
// limits are advisory: a collaborator that ignores them is not enforced
// against.
func Limits(threads int) []string {
	if threads < 1 {
		threads = 1
	}

	v := strconv.Itoa(threads)

	env := make([]string, 0, len(limitVars))
	for _, name := range limitVars {
		env = append(env, name+"="+v)
	}

	return env
}
