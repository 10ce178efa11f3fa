package octree

const (
	// Returned when an element could not be added after MaxGrowAttempts
	// root doublings. The tree is left as it was before the call.
	ErrTypeGrowthLimit = "octree_growth_limit"

	// Returned when a node is handed a children set that is not exactly 8
	// non-nil nodes.
	ErrTypeInvalidChildren = "octree_invalid_children"
)
