package camera

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sweeney/marker-interlock/internal/logic"
)

// Dictionary names a predefined ArUco marker dictionary.
type Dictionary string

// Predefined dictionaries.
const (
	Dict4x4_50   Dictionary = "4x4_50"
	Dict4x4_100  Dictionary = "4x4_100"
	Dict4x4_250  Dictionary = "4x4_250"
	Dict4x4_1000 Dictionary = "4x4_1000"
	Dict5x5_50   Dictionary = "5x5_50"
	Dict5x5_100  Dictionary = "5x5_100"
	Dict5x5_250  Dictionary = "5x5_250"
	Dict5x5_1000 Dictionary = "5x5_1000"
	Dict6x6_50   Dictionary = "6x6_50"
	Dict6x6_100  Dictionary = "6x6_100"
	Dict6x6_250  Dictionary = "6x6_250"
	Dict6x6_1000 Dictionary = "6x6_1000"
	Dict7x7_50   Dictionary = "7x7_50"
	Dict7x7_100  Dictionary = "7x7_100"
	Dict7x7_250  Dictionary = "7x7_250"
	Dict7x7_1000 Dictionary = "7x7_1000"
	DictOriginal Dictionary = "original"
)

// DefaultDictionary is used when none is configured.
const DefaultDictionary = Dict4x4_250

// dictionarySize is the number of markers in each dictionary.
var dictionarySize = map[Dictionary]int{
	Dict4x4_50: 50, Dict4x4_100: 100, Dict4x4_250: 250, Dict4x4_1000: 1000,
	Dict5x5_50: 50, Dict5x5_100: 100, Dict5x5_250: 250, Dict5x5_1000: 1000,
	Dict6x6_50: 50, Dict6x6_100: 100, Dict6x6_250: 250, Dict6x6_1000: 1000,
	Dict7x7_50: 50, Dict7x7_100: 100, Dict7x7_250: 250, Dict7x7_1000: 1000,
	DictOriginal: 1024,
}

// ParseDictionary accepts names like "4x4_250", "DICT_4X4_250" or "original".
func ParseDictionary(name string) (Dictionary, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "dict_")
	if n == "aruco_original" {
		n = string(DictOriginal)
	}
	d := Dictionary(n)
	if _, ok := dictionarySize[d]; !ok {
		return "", fmt.Errorf("unknown aruco dictionary %q (known: %s)", name, strings.Join(dictionaryNames(), ", "))
	}
	return d, nil
}

// Size returns how many distinct marker ids the dictionary holds.
func (d Dictionary) Size() int {
	return dictionarySize[d]
}

// CheckMarkers fails when set holds an id the dictionary cannot produce.
// Such a target would never be detected, so STOP would never be sent.
func (d Dictionary) CheckMarkers(set logic.MarkerSet) error {
	if hi := set.Max(); int(hi) >= d.Size() {
		return fmt.Errorf("marker %d is outside dictionary %s (ids 0 to %d)", hi, d, d.Size()-1)
	}
	return nil
}

func dictionaryNames() []string {
	names := make([]string, 0, len(dictionarySize))
	for d := range dictionarySize {
		names = append(names, string(d))
	}
	sort.Strings(names)
	return names
}
