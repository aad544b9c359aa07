package interpreter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"xmlang/interpreter-go/pkg/ast"
	"xmlang/interpreter-go/pkg/runtime"
)

// exitSignal terminates the run; nothing inside the program can intercept it.
type exitSignal struct {
	code int
}

func (e exitSignal) Error() string {
	return fmt.Sprintf("exit %d", e.code)
}

// ExitCodeFromError returns the exit code if err is an exit signal.
func ExitCodeFromError(err error) (int, bool) {
	var sig exitSignal
	if errors.As(err, &sig) {
		return sig.code, true
	}
	return 0, false
}

func evalExit(node *ast.Node) (runtime.Value, error) {
	code := 0
	if raw, ok := node.Attr("code"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fail(node, "Invalid exit code %q", raw)
		}
		code = n
	}
	return nil, exitSignal{code: code}
}
