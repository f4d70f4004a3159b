package inventory

// Box is a named storage container with an optional physical location.
// A box owns zero or more items; deleting it cascades to them.
type Box struct {
	ID       int64
	Name     string
	Location string // empty means unset
}

// Item is a named, quantified entity belonging to exactly one box.
// Quantity is never below 1: items at zero are deleted, not zeroed.
type Item struct {
	ID       int64
	Name     string
	BoxID    int64
	Quantity int
}

// ItemView is an item joined with its box's name for listing. BoxName is
// "N/A" when the box cannot be resolved, which the cascade delete should
// make structurally impossible; the handling is defensive only.
type ItemView struct {
	Item
	BoxName string
}

// UnresolvedBoxName is shown when an item's box cannot be resolved.
const UnresolvedBoxName = "N/A"
