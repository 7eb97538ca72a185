package grid

import (
	"github.com/pdrpinto/astar"
)

// TurnPenalty adds Penalty to every move that changes direction. The cost of
// a move depends on how the search reached its origin, so it is priced
// through astar.StateDistancer. Each cell is still expanded once, so the
// result favors straight runs without being guaranteed turn-optimal.
type TurnPenalty struct {
	astar.Strategy[Point]
	Penalty float64
}

// StateDistance prices from -> to using the predecessor of from to detect a turn.
func (t TurnPenalty) StateDistance(from, to *astar.SearchState[Point]) (float64, error) {
	cost, err := t.ExactDistance(from.Node(), to.Node())
	if err != nil {
		return 0, err
	}
	if prev := from.Predecessor(); prev != nil {
		if from.Node().Sub(prev.Node()) != to.Node().Sub(from.Node()) {
			cost += t.Penalty
		}
	}
	return cost, nil
}
