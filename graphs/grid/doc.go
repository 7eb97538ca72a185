// Package grid provides 2D grid domains for the astar package.
//
// Maze solves ASCII mazes made of '+', '-', '|' and spaces, where a node is a
// reachable character position. Grid is a rectangular board with a set of
// blocked cells, as used by the visualisation server. TurnPenalty wraps either
// one and makes changes of direction more expensive.
package grid
