package engine

// ProvinceType classifies a province as land (army only), sea (fleet
// only), or coastal (either).
type ProvinceType int

const (
	Land ProvinceType = iota
	Sea
	Coastal
)

// Province is one node of the board graph. Unlike the full standard
// map this reduced map has no split-coast provinces (e.g. Spain,
// St Petersburg each get a single coast) — a deliberate
// simplification documented in DESIGN.md.
type Province struct {
	ID        string
	Name      string
	Type      ProvinceType
	IsSC      bool
	HomePower Power
}

// Edge is a directed adjacency; the map stores both directions.
type Edge struct {
	To      string
	ArmyOK  bool
	FleetOK bool
}

// Map is the reduced board graph used by this module's engine. It
// covers each of the seven powers' home centers, three neutral supply
// centers, a ring of connector land provinces, and the sea zones
// needed to exercise fleet movement between them — enough to run every
// scenario in spec.md §8 without claiming full-map DATC compliance.
type Map struct {
	Provinces map[string]*Province
	Edges     map[string][]Edge
}

var standardMap *Map

// StandardMap returns the shared reduced-map instance.
func StandardMap() *Map {
	if standardMap == nil {
		standardMap = buildMap()
	}
	return standardMap
}

// Adjacent reports whether a unit of the given type may move directly
// from src to dst.
func (m *Map) Adjacent(src, dst string, isFleet bool) bool {
	for _, e := range m.Edges[src] {
		if e.To != dst {
			continue
		}
		if isFleet && e.FleetOK {
			return true
		}
		if !isFleet && e.ArmyOK {
			return true
		}
	}
	return false
}

// Neighbors returns every province reachable in one step by the given
// unit type.
func (m *Map) Neighbors(src string, isFleet bool) []string {
	var out []string
	for _, e := range m.Edges[src] {
		if (isFleet && e.FleetOK) || (!isFleet && e.ArmyOK) {
			out = append(out, e.To)
		}
	}
	return out
}

// HomeCenters returns the home supply centers belonging to power.
func (m *Map) HomeCenters(power Power) []string {
	var out []string
	for id, p := range m.Provinces {
		if p.HomePower == power {
			out = append(out, id)
		}
	}
	return out
}

// SupplyCenters returns every supply center on the map.
func (m *Map) SupplyCenters() []string {
	var out []string
	for id, p := range m.Provinces {
		if p.IsSC {
			out = append(out, id)
		}
	}
	return out
}

func buildMap() *Map {
	m := &Map{Provinces: map[string]*Province{}, Edges: map[string][]Edge{}}

	prov := func(id, name string, typ ProvinceType, isSC bool, home Power) {
		m.Provinces[id] = &Province{ID: id, Name: name, Type: typ, IsSC: isSC, HomePower: home}
	}

	// France
	prov("par", "Paris", Land, true, France)
	prov("bre", "Brest", Coastal, true, France)
	prov("mar", "Marseilles", Coastal, true, France)
	prov("pic", "Picardy", Coastal, false, Dummy)
	prov("bur", "Burgundy", Land, false, Dummy)
	prov("gas", "Gascony", Coastal, false, Dummy)

	// England
	prov("lon", "London", Coastal, true, England)
	prov("edi", "Edinburgh", Coastal, true, England)
	prov("lvp", "Liverpool", Coastal, true, England)
	prov("wal", "Wales", Coastal, false, Dummy)
	prov("yor", "Yorkshire", Coastal, false, Dummy)

	// Germany
	prov("ber", "Berlin", Coastal, true, Germany)
	prov("kie", "Kiel", Coastal, true, Germany)
	prov("mun", "Munich", Land, true, Germany)
	prov("ruh", "Ruhr", Land, false, Dummy)

	// Low countries (neutral supply centers)
	prov("bel", "Belgium", Coastal, true, Dummy)
	prov("hol", "Holland", Coastal, true, Dummy)
	prov("spa", "Spain", Coastal, true, Dummy)

	// Italy
	prov("ven", "Venice", Coastal, true, Italy)
	prov("rom", "Rome", Coastal, true, Italy)
	prov("nap", "Naples", Coastal, true, Italy)
	prov("tyr", "Tyrolia", Land, false, Dummy)

	// Austria
	prov("vie", "Vienna", Land, true, Austria)
	prov("bud", "Budapest", Land, true, Austria)
	prov("tri", "Trieste", Coastal, true, Austria)
	prov("boh", "Bohemia", Land, false, Dummy)
	prov("gal", "Galicia", Land, false, Dummy)

	// Russia
	prov("mos", "Moscow", Land, true, Russia)
	prov("sev", "Sevastopol", Coastal, true, Russia)
	prov("stp", "St Petersburg", Coastal, true, Russia)
	prov("war", "Warsaw", Land, true, Russia)
	prov("ukr", "Ukraine", Land, false, Dummy)
	prov("sil", "Silesia", Land, false, Dummy)

	// Turkey
	prov("ank", "Ankara", Coastal, true, Turkey)
	prov("con", "Constantinople", Coastal, true, Turkey)
	prov("smy", "Smyrna", Coastal, true, Turkey)
	prov("arm", "Armenia", Coastal, false, Dummy)

	// Sea zones
	for _, sea := range []struct{ id, name string }{
		{"eng", "English Channel"}, {"nth", "North Sea"}, {"hel", "Heligoland Bight"},
		{"bal", "Baltic Sea"}, {"adr", "Adriatic Sea"}, {"ion", "Ionian Sea"},
		{"aeg", "Aegean Sea"}, {"bla", "Black Sea"}, {"tys", "Tyrrhenian Sea"},
		{"wes", "Western Mediterranean"}, {"mid", "Mid-Atlantic Ocean"},
	} {
		prov(sea.id, sea.name, Sea, false, Dummy)
	}

	addA := func(a, b string) { addEdge(m, a, b, true, false) }
	addF := func(a, b string) { addEdge(m, a, b, false, true) }
	addB := func(a, b string) { addEdge(m, a, b, true, true) }

	// France
	addA("par", "bur")
	addA("par", "pic")
	addA("par", "bre")
	addA("par", "gas")
	addB("bre", "pic")
	addA("bre", "gas")
	addF("bre", "eng")
	addF("bre", "mid")
	addA("mar", "bur")
	addA("mar", "gas")
	addA("mar", "spa")
	addF("mar", "wes")
	addA("pic", "bur")
	addA("pic", "bel")
	addF("pic", "eng")
	addA("bur", "mun")
	addA("bur", "ruh")
	addA("bur", "bel")
	addA("gas", "spa")
	addF("gas", "mid")
	addF("spa", "wes")
	addF("spa", "mid")

	// Low countries / Germany
	addA("bel", "ruh")
	addA("bel", "hol")
	addF("bel", "nth")
	addF("bel", "eng")
	addA("hol", "ruh")
	addA("hol", "kie")
	addF("hol", "nth")
	addF("hol", "hel")
	addA("ruh", "kie")
	addA("ruh", "mun")
	addA("kie", "mun")
	addA("kie", "ber")
	addF("kie", "hel")
	addF("kie", "bal")
	addA("mun", "ber")
	addA("mun", "boh")
	addA("mun", "tyr")
	addA("mun", "sil")
	addA("ber", "sil")
	addF("ber", "bal")

	// Central/Eastern Europe
	addA("sil", "boh")
	addA("sil", "gal")
	addA("sil", "war")
	addA("boh", "tyr")
	addA("boh", "vie")
	addA("boh", "gal")
	addA("tyr", "vie")
	addA("tyr", "tri")
	addA("tyr", "ven")
	addA("vie", "tri")
	addA("vie", "bud")
	addA("vie", "gal")
	addA("bud", "gal")
	addA("bud", "tri")
	addF("tri", "adr")
	addA("tri", "ven")
	addF("ven", "adr")
	addF("ven", "tys")
	addA("ven", "rom")
	addF("rom", "tys")
	addA("rom", "nap")
	addF("nap", "tys")
	addF("nap", "ion")
	addF("tys", "wes")
	addF("tys", "ion")
	addF("adr", "ion")
	addF("ion", "aeg")

	// England
	addB("lon", "wal")
	addA("lon", "yor")
	addF("lon", "eng")
	addF("lon", "nth")
	addA("edi", "yor")
	addA("edi", "lvp")
	addF("edi", "nth")
	addA("lvp", "wal")
	addA("wal", "yor")
	addF("wal", "eng")
	addF("wal", "mid")
	addF("yor", "nth")

	// Russia
	addA("war", "gal")
	addA("war", "mos")
	addA("war", "ukr")
	addA("mos", "ukr")
	addA("mos", "sev")
	addA("mos", "stp")
	addA("ukr", "gal")
	addA("ukr", "sev")
	addF("sev", "bla")
	addA("sev", "arm")
	addF("stp", "bal")

	// Turkey
	addA("arm", "sev")
	addA("arm", "ank")
	addF("arm", "bla")
	addF("ank", "bla")
	addA("ank", "con")
	addF("con", "bla")
	addF("con", "aeg")
	addA("con", "smy")
	addF("smy", "aeg")
	addA("smy", "arm")

	return m
}

func addEdge(m *Map, a, b string, armyOK, fleetOK bool) {
	m.Edges[a] = append(m.Edges[a], Edge{To: b, ArmyOK: armyOK, FleetOK: fleetOK})
	m.Edges[b] = append(m.Edges[b], Edge{To: a, ArmyOK: armyOK, FleetOK: fleetOK})
}
