package site

import "strings"

// Country selects an Indeed regional site.
type Country string

const (
	UnitedStates  Country = "us"
	UnitedKingdom Country = "uk"
	Canada        Country = "ca"
	Australia     Country = "au"
	India         Country = "in"
	France        Country = "fr"
	Germany       Country = "de"
	Netherlands   Country = "nl"
	Japan         Country = "jp"
	Ireland       Country = "ie"
	Brazil        Country = "br"
	Mexico        Country = "mx"
	Italy         Country = "it"
	Spain         Country = "es"
	Singapore     Country = "sg"
	Switzerland   Country = "ch"
	UAE           Country = "ae"
)

// DefaultCountry is used when no country, or an unknown one, is given.
const DefaultCountry = Ireland

type countryInfo struct {
	name string
	root string
}

var countries = map[Country]countryInfo{
	UnitedStates:  {"united states", "https://www.indeed.com"},
	UnitedKingdom: {"united kingdom", "https://www.indeed.co.uk"},
	Canada:        {"canada", "https://www.indeed.ca"},
	Australia:     {"australia", "https://www.indeed.com.au"},
	India:         {"india", "https://www.indeed.co.in"},
	France:        {"france", "https://www.indeed.fr"},
	Germany:       {"germany", "https://www.indeed.de"},
	Netherlands:   {"netherlands", "https://www.indeed.nl"},
	Japan:         {"japan", "https://www.indeed.jp"},
	Ireland:       {"ireland", "https://www.indeed.ie"},
	Brazil:        {"brazil", "https://www.indeed.com.br"},
	Mexico:        {"mexico", "https://www.indeed.mx"},
	Italy:         {"italy", "https://www.indeed.it"},
	Spain:         {"spain", "https://www.indeed.es"},
	Singapore:     {"singapore", "https://www.indeed.sg"},
	Switzerland:   {"switzerland", "https://www.indeed.ch"},
	UAE:           {"united arab emirates", "https://www.indeed.ae"},
}

// aliases are extra spellings ParseCountry accepts.
var aliases = map[string]Country{
	"gb":            UnitedKingdom,
	"usa":           UnitedStates,
	"uae":           UAE,
	"unitedstates":  UnitedStates,
	"unitedkingdom": UnitedKingdom,
}

// ParseCountry accepts a country code or English name, case-insensitively.
// ok is false when s names no supported country.
func ParseCountry(s string) (Country, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if _, ok := countries[Country(key)]; ok {
		return Country(key), true
	}
	if c, ok := aliases[key]; ok {
		return c, true
	}
	for c, info := range countries {
		if info.name == key {
			return c, true
		}
	}
	return "", false
}

// RootDomain returns the Indeed site for c, falling back to the Irish site.
func (c Country) RootDomain() string {
	if info, ok := countries[c]; ok {
		return info.root
	}
	return countries[DefaultCountry].root
}

// Countries lists the supported country codes.
func Countries() []Country {
	out := make([]Country, 0, len(countries))
	for c := range countries {
		out = append(out, c)
	}
	return out
}
