package sagarun

// Typed is implemented by actions that carry a discriminator string, the
// Go analogue of the source ecosystem's convention of a "type" field on
// every dispatched action.
type Typed interface {
	ActionType() string
}

// compileMatcher turns a pattern into a predicate over an input value.
// Recognized pattern forms:
//   - nil or "*": always true (wildcard).
//   - string: input implements Typed and its ActionType() equals pattern.
//   - func(any) bool: invoked directly.
//   - []any: disjunction over the compiled predicates of each element.
func compileMatcher(pattern any) func(any) bool {
	switch p := pattern.(type) {
	case nil:
		return func(any) bool { return true }

	case string:
		if p == "*" {
			return func(any) bool { return true }
		}
		return func(v any) bool {
			t, ok := v.(Typed)
			return ok && t.ActionType() == p
		}

	case func(any) bool:
		return p

	case []any:
		preds := make([]func(any) bool, len(p))
		for i, sub := range p {
			preds[i] = compileMatcher(sub)
		}
		return func(v any) bool {
			for _, pred := range preds {
				if pred(v) {
					return true
				}
			}
			return false
		}

	case []string:
		preds := make([]func(any) bool, len(p))
		for i, sub := range p {
			preds[i] = compileMatcher(sub)
		}
		return func(v any) bool {
			for _, pred := range preds {
				if pred(v) {
					return true
				}
			}
			return false
		}

	default:
		return func(any) bool { return false }
	}
}
