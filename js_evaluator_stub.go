//go:build !js_eval

package overrides

// NewJSEvaluator is unavailable without the js_eval build tag. It returns nil,
// which ExpressionCriterion treats as a request for the expr engine.
func NewJSEvaluator(...EngineOption) Evaluator {
	return nil
}

func isJSEvaluator(Evaluator) bool {
	return false
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return false
}
