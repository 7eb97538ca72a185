package transit

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"

	"github.com/pdrpinto/astar"
)

var (
	// ErrUnknownStation is returned when a link or lookup names a station
	// that does not exist.
	ErrUnknownStation = errors.New("transit: unknown station")
	// ErrMalformed is returned for input that does not follow the format.
	ErrMalformed = errors.New("transit: malformed input")
)

// Station is a stop of the network.
type Station struct {
	ID    string
	Name  string
	Lat   float64
	Lon   float64
	Links []*Station
}

// Network indexes stations by ID.
type Network struct {
	stations map[string]*Station
}

// NewNetwork returns an empty network.
func NewNetwork() *Network {
	return &Network{stations: make(map[string]*Station)}
}

// Add registers a station, replacing any station with the same ID.
func (n *Network) Add(station *Station) {
	n.stations[station.ID] = station
}

// Station returns the station with the given ID.
func (n *Network) Station(id string) (*Station, error) {
	station, ok := n.stations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStation, id)
	}
	return station, nil
}

// Link adds a directed link from -> to.
func (n *Network) Link(fromID, toID string) error {
	from, err := n.Station(fromID)
	if err != nil {
		return err
	}
	to, err := n.Station(toID)
	if err != nil {
		return err
	}
	from.Links = append(from.Links, to)
	return nil
}

// Len is the number of stations.
func (n *Network) Len() int { return len(n.stations) }

// Stations returns every station sorted by ID.
func (n *Network) Stations() []*Station {
	out := make([]*Station, 0, len(n.stations))
	for _, station := range n.stations {
		out = append(out, station)
	}
	slices.SortFunc(out, func(a, b *Station) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Distance approximates the angular distance between two stations with an
// equirectangular projection, in radians.
func Distance(a, b *Station) float64 {
	latA, lonA := a.Lat*math.Pi/180, a.Lon*math.Pi/180
	latB, lonB := b.Lat*math.Pi/180, b.Lon*math.Pi/180
	x := (lonB - lonA) * math.Cos((latA+latB)/2)
	y := latB - latA
	return math.Hypot(x, y)
}

// Finder is the astar strategy over stations.
type Finder struct{}

func (Finder) HeuristicEstimate(current, goal *Station) float64 { return Distance(current, goal) }

func (Finder) ExactDistance(from, to *Station) (float64, error) { return Distance(from, to), nil }

func (Finder) Neighbors(station *Station) (iter.Seq[*Station], error) {
	return slices.Values(station.Links), nil
}

// Route finds the shortest route between two stations.
func (n *Network) Route(ctx context.Context, from, to *Station, options ...astar.Option) (astar.Result[*Station], error) {
	return astar.Search[*Station](ctx, Finder{}, from, to, options...)
}

// Names returns the station names of path.
func Names(path []*Station) []string {
	names := make([]string, len(path))
	for i, station := range path {
		names[i] = station.Name
	}
	return names
}

// FormatTan renders a route the way the tan format expects: one station name
// per line, or IMPOSSIBLE when there is no route.
func FormatTan(result astar.Result[*Station]) string {
	if !result.Found {
		return "IMPOSSIBLE\n"
	}
	var b strings.Builder
	for _, name := range Names(result.Path) {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return b.String()
}
