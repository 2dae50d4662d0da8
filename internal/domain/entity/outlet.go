package entity

// Outlet is a press source identified by a stable tag, mapping to a display
// name and its RSS feed URL. The registry is fixed at compile time; adding or
// removing an outlet is a registry edit only (no dynamic dispatch).
type Outlet struct {
	Tag         string
	DisplayName string
	FeedURL     string
}

// Outlet tags. Stable identifiers persisted on every Article.
const (
	OutletABC             = "abc"
	OutletAntena3         = "antena3"
	OutletCope            = "cope"
	OutletDiarioRed       = "diarioRed"
	OutletElDiario        = "elDiario"
	OutletElEconomista    = "elEconomista"
	OutletElMundo         = "elMundo"
	OutletElPais          = "elPais"
	OutletElPeriodico     = "elPeriodico"
	OutletElSalto         = "elSalto"
	OutletEsDiario        = "esDiario"
	OutletExpansion       = "expansion"
	OutletLaSexta         = "laSexta"
	OutletLaVanguardia    = "laVanguardia"
	OutletLibertadDigital = "libertadDigital"
	OutletRTVE            = "rtve"
)

var outletRegistry = map[string]Outlet{
	OutletABC:             {Tag: OutletABC, DisplayName: "ABC", FeedURL: "https://www.abc.es/rss/2.0/portada/"},
	OutletAntena3:         {Tag: OutletAntena3, DisplayName: "Antena 3", FeedURL: "https://www.antena3.com/noticias/rss/4013050.xml"},
	OutletCope:            {Tag: OutletCope, DisplayName: "COPE", FeedURL: "https://www.cope.es/api/es/news/rss.xml"},
	OutletDiarioRed:       {Tag: OutletDiarioRed, DisplayName: "Diario Red", FeedURL: "https://www.diario-red.com/rss/"},
	OutletElDiario:        {Tag: OutletElDiario, DisplayName: "El Diario", FeedURL: "https://www.eldiario.es/rss/"},
	OutletElEconomista:    {Tag: OutletElEconomista, DisplayName: "El Economista", FeedURL: "https://www.eleconomista.es/rss/rss-seleccion-ee.php"},
	OutletElMundo:         {Tag: OutletElMundo, DisplayName: "El Mundo", FeedURL: "https://e00-elmundo.uecdn.es/elmundo/rss/portada.xml"},
	OutletElPais:          {Tag: OutletElPais, DisplayName: "El País", FeedURL: "https://feeds.elpais.com/mrss-s/pages/ep/site/elpais.com/portada"},
	OutletElPeriodico:     {Tag: OutletElPeriodico, DisplayName: "El Periódico", FeedURL: "https://www.elperiodico.com/es/cds/rss/?id=board.xml"},
	OutletElSalto:         {Tag: OutletElSalto, DisplayName: "El Salto", FeedURL: "https://www.elsaltodiario.com/general/feed"},
	OutletEsDiario:        {Tag: OutletEsDiario, DisplayName: "ES Diario", FeedURL: "https://www.esdiario.com/rss/home.xml"},
	OutletExpansion:       {Tag: OutletExpansion, DisplayName: "Expansión", FeedURL: "https://e00-expansion.uecdn.es/rss/portada.xml"},
	OutletLaSexta:         {Tag: OutletLaSexta, DisplayName: "La Sexta", FeedURL: "https://www.lasexta.com/rss/351410.xml"},
	OutletLaVanguardia:    {Tag: OutletLaVanguardia, DisplayName: "La Vanguardia", FeedURL: "https://www.lavanguardia.com/rss/home.xml"},
	OutletLibertadDigital: {Tag: OutletLibertadDigital, DisplayName: "Libertad Digital", FeedURL: "https://feeds2.feedburner.com/libertaddigital/portada"},
	OutletRTVE:            {Tag: OutletRTVE, DisplayName: "RTVE", FeedURL: "https://api2.rtve.es/rss/temas_noticias.xml"},
}

// AllOutlets returns the fixed outlet enum, in a stable order.
func AllOutlets() []Outlet {
	tags := []string{
		OutletABC, OutletAntena3, OutletCope, OutletDiarioRed, OutletElDiario,
		OutletElEconomista, OutletElMundo, OutletElPais, OutletElPeriodico,
		OutletElSalto, OutletEsDiario, OutletExpansion, OutletLaSexta,
		OutletLaVanguardia, OutletLibertadDigital, OutletRTVE,
	}
	outlets := make([]Outlet, 0, len(tags))
	for _, tag := range tags {
		outlets = append(outlets, outletRegistry[tag])
	}
	return outlets
}

// GetOutlet looks up an outlet by tag. ok is false for an unknown tag.
func GetOutlet(tag string) (Outlet, bool) {
	o, ok := outletRegistry[tag]
	return o, ok
}

// LoadOutletRegistry replaces the package-level registry with outlets.
// Only tests call it: no code reads an OUTLET_LIST variable or a registry
// file, so the worker always runs with the compiled-in defaults.
// A nil or empty slice is a no-op, keeping the current registry.
func LoadOutletRegistry(outlets []Outlet) {
	if len(outlets) == 0 {
		return
	}
	next := make(map[string]Outlet, len(outlets))
	for _, o := range outlets {
		next[o.Tag] = o
	}
	outletRegistry = next
}
