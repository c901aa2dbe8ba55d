package revision

// DefaultUndoLimit bounds each history stack when no limit is configured.
const DefaultUndoLimit = 100

// History keeps bounded undo and redo stacks of whole-document text.
type History struct {
	current string
	undo    []string
	redo    []string
	limit   int
}

// NewHistory starts a history at initial. A limit below 1 uses
// DefaultUndoLimit.
func NewHistory(initial string, limit int) *History {
	if limit < 1 {
		limit = DefaultUndoLimit
	}
	return &History{current: initial, limit: limit}
}

// Commit makes text current, pushing the previous text onto the undo stack and
// clearing redo. Committing the current text is a no-op.
func (h *History) Commit(text string) {
	if text == h.current {
		return
	}
	h.undo = push(h.undo, h.current, h.limit)
	h.redo = nil
	h.current = text
}

// Undo steps back one snapshot. It returns false when there is nothing to undo.
func (h *History) Undo() (string, bool) {
	if len(h.undo) == 0 {
		return h.current, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = push(h.redo, h.current, h.limit)
	h.current = prev
	return prev, true
}

// Redo re-applies the last undone snapshot.
func (h *History) Redo() (string, bool) {
	if len(h.redo) == 0 {
		return h.current, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = push(h.undo, h.current, h.limit)
	h.current = next
	return next, true
}

func (h *History) Current() string { return h.current }
func (h *History) CanUndo() bool   { return len(h.undo) > 0 }
func (h *History) CanRedo() bool   { return len(h.redo) > 0 }

func push(stack []string, text string, limit int) []string {
	stack = append(stack, text)
	if len(stack) > limit {
		stack = append([]string(nil), stack[len(stack)-limit:]...)
	}
	return stack
}
