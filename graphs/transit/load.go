package transit

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadCSV builds an undirected network from a stations file and a routes
// file. Both start with a header row. Station rows are
// id,latitude,longitude,name[,...]; route rows are station1,station2[,line].
func LoadCSV(stations io.Reader, routes io.Reader) (*Network, error) {
	network := NewNetwork()

	stationRows, err := readCSV(stations, 4)
	if err != nil {
		return nil, fmt.Errorf("read stations: %w", err)
	}
	for i, row := range stationRows {
		lat, lon, err := parsePosition(row[1], row[2])
		if err != nil {
			return nil, fmt.Errorf("stations row %d: %w", i+2, err)
		}
		network.Add(&Station{ID: strings.TrimSpace(row[0]), Name: strings.TrimSpace(row[3]), Lat: lat, Lon: lon})
	}

	routeRows, err := readCSV(routes, 2)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	for i, row := range routeRows {
		from, to := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if err := network.Link(from, to); err != nil {
			return nil, fmt.Errorf("routes row %d: %w", i+2, err)
		}
		if err := network.Link(to, from); err != nil {
			return nil, fmt.Errorf("routes row %d: %w", i+2, err)
		}
	}
	return network, nil
}

// readCSV returns the data rows after the header, each with at least
// minFields fields.
func readCSV(r io.Reader, minFields int) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", ErrMalformed)
		}
		return nil, err
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) < minFields {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d", ErrMalformed, i+2, len(row), minFields)
		}
	}
	return rows, nil
}

func parsePosition(latText, lonText string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q", ErrMalformed, latText)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q", ErrMalformed, lonText)
	}
	return lat, lon, nil
}

// TanProblem is a network read from the tan format along with the requested
// journey.
type TanProblem struct {
	Network *Network
	Start   *Station
	Goal    *Station
}

// ParseTan reads the tan format:
//
//	<start id>
//	<goal id>
//	<N>
//	N lines: id,"name",description,latitude,longitude,...
//	<M>
//	M lines: <from id> <to id>
//
// Links are directed.
func ParseTan(r io.Reader) (*TanProblem, error) {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	next := func(what string) (string, error) {
		for lines.Scan() {
			lineNo++
			if text := strings.TrimSpace(lines.Text()); text != "" {
				return text, nil
			}
		}
		if err := lines.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: missing %s", ErrMalformed, what)
	}
	count := func(what string) (int, error) {
		text, err := next(what)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: line %d: %s %q", ErrMalformed, lineNo, what, text)
		}
		return n, nil
	}

	startID, err := next("start id")
	if err != nil {
		return nil, err
	}
	goalID, err := next("goal id")
	if err != nil {
		return nil, err
	}

	network := NewNetwork()
	stationCount, err := count("station count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < stationCount; i++ {
		text, err := next("station")
		if err != nil {
			return nil, err
		}
		station, err := parseTanStation(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		network.Add(station)
	}

	linkCount, err := count("link count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < linkCount; i++ {
		text, err := next("link")
		if err != nil {
			return nil, err
		}
		ids := strings.Fields(text)
		if len(ids) != 2 {
			return nil, fmt.Errorf("%w: line %d: link %q", ErrMalformed, lineNo, text)
		}
		if err := network.Link(ids[0], ids[1]); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	start, err := network.Station(startID)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	goal, err := network.Station(goalID)
	if err != nil {
		return nil, fmt.Errorf("goal: %w", err)
	}
	return &TanProblem{Network: network, Start: start, Goal: goal}, nil
}

func parseTanStation(text string) (*Station, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	fields, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: station %q: %v", ErrMalformed, text, err)
	}
	if len(fields) < 5 {
		return nil, fmt.Errorf("%w: station %q has %d fields", ErrMalformed, text, len(fields))
	}
	lat, lon, err := parsePosition(fields[3], fields[4])
	if err != nil {
		return nil, err
	}
	return &Station{
		ID:   strings.TrimSpace(fields[0]),
		Name: strings.ReplaceAll(fields[1], `"`, ""),
		Lat:  lat,
		Lon:  lon,
	}, nil
}
