package internal

// ReconstructPath walks back-pointers from last until predecessor returns nil
// and returns the visited values in start-to-last order, or last-to-start
// order when reverse is set.
func ReconstructPath[StateType any, NodeType any](
	last *StateType,
	predecessor func(*StateType) *StateType,
	value func(*StateType) NodeType,
	reverse bool,
) []NodeType {
	var path []NodeType
	for current := last; current != nil; current = predecessor(current) {
		path = append(path, value(current))
	}
	if reverse {
		return path
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
