package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultCountry is the ISO 3166 country code appended to provider queries.
	DefaultCountry = "ro"

	// CatalogTimeZone is the IANA zone shared by every catalog city.
	CatalogTimeZone = "Europe/Bucharest"
)

// City is a selectable city. Name keeps its native spelling.
type City struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

var cityNames = []string{
	"Alba Iulia", "Arad", "Bacău", "Baia Mare", "Bistrița", "Botoșani", "Brăila", "Brașov", "București",
	"Buzău", "Călărași", "Cluj-Napoca", "Constanța", "Craiova", "Deva", "Drobeta-Turnu Severin",
	"Focșani", "Galați", "Giurgiu", "Iași", "Miercurea Ciuc", "Oradea", "Piatra Neamț", "Pitești",
	"Ploiești", "Râmnicu Vâlcea", "Reșița", "Roman", "Satu Mare", "Sfântu Gheorghe", "Sibiu",
	"Sighetu Marmației", "Slatina", "Slobozia", "Suceava", "Târgoviște", "Târgu Jiu", "Târgu Mureș",
	"Timișoara", "Tulcea", "Turda", "Vaslui", "Zalău",
}

var cityIndex = buildCityIndex()

func buildCityIndex() map[string]string {
	idx := make(map[string]string, len(cityNames))
	for _, name := range cityNames {
		idx[foldCityName(name)] = name
	}
	return idx
}

// Cities returns the catalog in display order.
func Cities() []City {
	out := make([]City, len(cityNames))
	for i, name := range cityNames {
		out[i] = City{Name: name, Country: DefaultCountry}
	}
	return out
}

// LookupCity finds a city ignoring case, diacritics, and surrounding spaces,
// so "brasov" and "BRAȘOV" both resolve to "Brașov".
func LookupCity(name string) (City, bool) {
	canonical, ok := cityIndex[foldCityName(name)]
	if !ok {
		return City{}, false
	}
	return City{Name: canonical, Country: DefaultCountry}, true
}

// foldCityName strips combining marks (ă, ș, ț, â, î) and case-folds.
func foldCityName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	folded, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return strings.Join(strings.Fields(folded), " ")
}
