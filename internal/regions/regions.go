// Package regions holds the static table of Census regions (states, DC and
// island areas) keyed by their two-digit FIPS code.
package regions

import (
	"fmt"
	"sort"
)

// Region is a single entry of the table.
type Region struct {
	Code string // two-digit FIPS code, e.g. "25"
	ID   string // canonical slug, e.g. "massachusetts"
}

func (r Region) String() string {
	return fmt.Sprintf("[%s] %s", r.Code, r.ID)
}

var table = map[string]string{
	"01": "alabama", "02": "alaska", "04": "arizona", "05": "arkansas",
	"06": "california", "08": "colorado", "09": "connecticut", "10": "delaware",
	"11": "dc", "12": "florida", "13": "georgia", "15": "hawaii",
	"16": "idaho", "17": "illinois", "18": "indiana", "19": "iowa",
	"20": "kansas", "21": "kentucky", "22": "louisiana", "23": "maine",
	"24": "maryland", "25": "massachusetts", "26": "michigan", "27": "minnesota",
	"28": "mississippi", "29": "missouri", "30": "montana", "31": "nebraska",
	"32": "nevada", "33": "new_hampshire", "34": "new_jersey", "35": "new_mexico",
	"36": "new_york", "37": "north_carolina", "38": "north_dakota", "39": "ohio",
	"40": "oklahoma", "41": "oregon", "42": "pennsylvania", "44": "rhode_island",
	"45": "south_carolina", "46": "south_dakota", "47": "tennessee", "48": "texas",
	"49": "utah", "50": "vermont", "51": "virginia", "53": "washington",
	"54": "west_virginia", "55": "wisconsin", "56": "wyoming",
	"60": "american_samoa", "66": "guam", "69": "northern_mariana_islands",
	"78": "us_virgin_islands",
}

// large lists regions whose place geometries are big or sparse enough to
// warrant the coarser simplification tolerance.
var large = map[string]bool{
	"alaska": true, "california": true, "montana": true, "new_mexico": true,
	"arizona": true, "nevada": true, "colorado": true, "oregon": true,
	"wyoming": true, "michigan": true, "utah": true, "idaho": true,
	"kansas": true, "nebraska": true, "south_dakota": true, "north_dakota": true,
	"oklahoma": true, "missouri": true, "washington": true, "minnesota": true,
	"iowa": true, "wisconsin": true, "illinois": true, "georgia": true,
	"florida": true, "new_york": true, "pennsylvania": true, "ohio": true,
	"virginia": true, "north_carolina": true, "indiana": true,
}

// All returns every region sorted by ID.
func All() []Region {
	out := make([]Region, 0, len(table))
	for code, id := range table {
		out = append(out, Region{Code: code, ID: id})
	}
	sortByID(out)
	return out
}

// Lookup returns the region with the given FIPS code.
func Lookup(code string) (Region, bool) {
	id, ok := table[code]
	if !ok {
		return Region{}, false
	}
	return Region{Code: code, ID: id}, true
}

// ByID returns the region with the given slug.
func ByID(id string) (Region, bool) {
	for code, v := range table {
		if v == id {
			return Region{Code: code, ID: id}, true
		}
	}
	return Region{}, false
}

// IsLarge reports whether the region uses the coarse tolerance.
func IsLarge(id string) bool {
	return large[id]
}

// Select resolves names (codes or IDs) to regions. An empty list selects
// all regions. The result is sorted by ID and free of duplicates.
func Select(names []string) ([]Region, error) {
	if len(names) == 0 {
		return All(), nil
	}

	seen := make(map[string]bool, len(names))
	out := make([]Region, 0, len(names))
	for _, name := range names {
		r, ok := Lookup(name)
		if !ok {
			r, ok = ByID(name)
		}
		if !ok {
			return nil, fmt.Errorf("regions: unknown region %q", name)
		}
		if seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		out = append(out, r)
	}
	sortByID(out)
	return out, nil
}

func sortByID(rs []Region) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}
