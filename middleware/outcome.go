package middleware

import "github.com/xraph/weft/fault"

// outcome labels an error for logs, spans and metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case fault.IsDefect(err):
		return "defect"
	default:
		return "failure"
	}
}
