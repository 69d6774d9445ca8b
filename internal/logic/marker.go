package logic

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MarkerID identifies a fiducial marker.
type MarkerID int

// Errors returned by ParseTarget.
var (
	ErrTargetNotNumeric = errors.New("marker id is not a number")
	ErrTargetOutOfRange = errors.New("marker id is not in the valid set")
)

// MaxMarkerID is the highest id any predefined ArUco dictionary holds.
const MaxMarkerID MarkerID = 1023

// MarkerSet is the finite set of marker ids a target may be chosen from.
// The zero value is empty.
type MarkerSet struct {
	ids map[MarkerID]struct{}
}

// NewMarkerSet returns a set holding ids.
func NewMarkerSet(ids ...MarkerID) MarkerSet {
	s := MarkerSet{ids: make(map[MarkerID]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// DefaultMarkerSet returns ids 0 through 3 inclusive.
func DefaultMarkerSet() MarkerSet {
	return NewMarkerSet(0, 1, 2, 3)
}

// ParseMarkerSet parses a comma separated list of ids and inclusive
// ranges, e.g. "0-3" or "0,1,7-9".
func ParseMarkerSet(raw string) (MarkerSet, error) {
	var ids []MarkerID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			hi = lo
		}
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return MarkerSet{}, fmt.Errorf("marker set %q: %w", part, ErrTargetNotNumeric)
		}
		to, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return MarkerSet{}, fmt.Errorf("marker set %q: %w", part, ErrTargetNotNumeric)
		}
		if from < 0 || to < from {
			return MarkerSet{}, fmt.Errorf("marker set %q: invalid range", part)
		}
		if to > int(MaxMarkerID) {
			return MarkerSet{}, fmt.Errorf("marker set %q: ids above %d do not exist", part, MaxMarkerID)
		}
		for id := from; id <= to; id++ {
			ids = append(ids, MarkerID(id))
		}
	}
	if len(ids) == 0 {
		return MarkerSet{}, errors.New("marker set is empty")
	}
	return NewMarkerSet(ids...), nil
}

// Contains reports whether id is in the set.
func (s MarkerSet) Contains(id MarkerID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ids in the set.
func (s MarkerSet) Len() int {
	return len(s.ids)
}

// Max returns the highest id in the set, or -1 when it is empty.
func (s MarkerSet) Max() MarkerID {
	hi := MarkerID(-1)
	for id := range s.ids {
		if id > hi {
			hi = id
		}
	}
	return hi
}

// IDs returns the ids in ascending order.
func (s MarkerSet) IDs() []MarkerID {
	out := make([]MarkerID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the set compactly, collapsing consecutive runs ("0-3").
func (s MarkerSet) String() string {
	ids := s.IDs()
	var parts []string
	for i := 0; i < len(ids); {
		j := i
		for j+1 < len(ids) && ids[j+1] == ids[j]+1 {
			j++
		}
		if j > i {
			parts = append(parts, fmt.Sprintf("%d-%d", ids[i], ids[j]))
		} else {
			parts = append(parts, strconv.Itoa(int(ids[i])))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}

// ParseTarget validates operator input as a target marker id.
func ParseTarget(raw string, valid MarkerSet) (MarkerID, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("target %q: %w", raw, ErrTargetNotNumeric)
	}
	id := MarkerID(n)
	if !valid.Contains(id) {
		return 0, fmt.Errorf("target %d (valid: %s): %w", n, valid, ErrTargetOutOfRange)
	}
	return id, nil
}

// Detection is the set of markers observed in one cycle. It may be empty.
type Detection struct {
	ids []MarkerID
}

// NewDetection builds a detection from the ids reported by a detector.
// Duplicates are dropped; order is not significant.
func NewDetection(ids ...MarkerID) Detection {
	d := Detection{ids: make([]MarkerID, 0, len(ids))}
	for _, id := range ids {
		if !d.Contains(id) {
			d.ids = append(d.ids, id)
		}
	}
	return d
}

// Contains reports whether id was observed.
func (d Detection) Contains(id MarkerID) bool {
	for _, seen := range d.ids {
		if seen == id {
			return true
		}
	}
	return false
}

// Empty reports whether no markers were observed.
func (d Detection) Empty() bool {
	return len(d.ids) == 0
}

// IDs returns a copy of the observed ids.
func (d Detection) IDs() []MarkerID {
	out := make([]MarkerID, len(d.ids))
	copy(out, d.ids)
	return out
}
