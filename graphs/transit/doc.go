// Package transit models rail networks as astar domains.
//
// A Network is a set of stations with geographic positions and directed
// links. Networks are loaded from a pair of CSV files (LoadCSV) or from the
// single-file "tan" format (ParseTan). The Finder strategy uses the
// equirectangular distance between stations both as edge cost and heuristic,
// which keeps the heuristic admissible.
package transit
