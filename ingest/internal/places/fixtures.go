package places

import "strings"

// Fixture returns the canonical fixture record for a term, or nil when the
// term is unmapped. Keys are lowercase. Fixtures are deterministic so the
// whole pipeline can run without any live credential.
func Fixture(term string) *Record {
	rec, ok := fixtures[strings.ToLower(strings.TrimSpace(term))]
	if !ok {
		return nil
	}
	// Copy so callers can mutate freely.
	out := *rec
	out.Photos = append([]string(nil), rec.Photos...)
	out.Types = append([]string(nil), rec.Types...)
	out.Sources = append([]string(nil), rec.Sources...)
	out.ConfidenceSeed = Seed(&out)
	return &out
}

var fixtures = map[string]*Record{
	"blue mosque": {
		Title:        "Blue Mosque (Sultan Ahmed Mosque)",
		Description:  "Ottoman-era imperial mosque famed for the hand-painted blue Iznik tiles lining its interior and its six minarets. Still an active place of worship; visitors enter outside prayer times.",
		Rating:       4.7,
		ReviewCount:  98432,
		PriceRange:   "",
		Duration:     "1-2 hours",
		Location:     "Sultanahmet, Istanbul",
		Address:      "Binbirdirek, At Meydanı Cd No:10, 34122 Fatih/İstanbul, Turkey",
		Lat:          41.0054,
		Lng:          28.9768,
		OpeningHours: "Daily 08:30-18:30, closed to visitors during prayer times",
		Types:        []string{"mosque", "attraction", "historic"},
		Website:      "https://www.sultanahmetcamii.org",
		Photos: []string{
			"https://images.venuery.dev/fixtures/blue-mosque-1.jpg",
			"https://images.venuery.dev/fixtures/blue-mosque-2.jpg",
			"https://images.venuery.dev/fixtures/blue-mosque-3.jpg",
		},
		Sources: []string{"fixture"},
	},
	"hagia sophia": {
		Title:        "Hagia Sophia Grand Mosque",
		Description:  "Byzantine cathedral turned mosque turned museum turned mosque again; fifteen centuries of layered history under one of the world's great domes.",
		Rating:       4.8,
		ReviewCount:  142301,
		Duration:     "1-2 hours",
		Location:     "Sultanahmet, Istanbul",
		Address:      "Sultan Ahmet, Ayasofya Meydanı No:1, 34122 Fatih/İstanbul, Turkey",
		Lat:          41.0086,
		Lng:          28.9802,
		OpeningHours: "Daily 09:00-19:00",
		Types:        []string{"mosque", "museum", "attraction"},
		Website:      "https://ayasofyacamii.gov.tr",
		Photos: []string{
			"https://images.venuery.dev/fixtures/hagia-sophia-1.jpg",
			"https://images.venuery.dev/fixtures/hagia-sophia-2.jpg",
		},
		Sources: []string{"fixture"},
	},
	"topkapi palace": {
		Title:        "Topkapi Palace Museum",
		Description:  "Primary residence of the Ottoman sultans for four centuries, now a sprawling museum of imperial collections, courtyards, and the Harem.",
		Rating:       4.6,
		ReviewCount:  87120,
		PriceRange:   "$$",
		Duration:     "2-4 hours",
		Location:     "Sultanahmet, Istanbul",
		Address:      "Cankurtaran, 34122 Fatih/İstanbul, Turkey",
		Lat:          41.0115,
		Lng:          28.9833,
		OpeningHours: "Wed-Mon 09:00-18:00, closed Tuesdays",
		Types:        []string{"palace", "museum", "attraction"},
		Website:      "https://muze.gen.tr/muze-detay/topkapi",
		Photos: []string{
			"https://images.venuery.dev/fixtures/topkapi-1.jpg",
			"https://images.venuery.dev/fixtures/topkapi-2.jpg",
			"https://images.venuery.dev/fixtures/topkapi-3.jpg",
		},
		Sources: []string{"fixture"},
	},
	"grand bazaar": {
		Title:        "Grand Bazaar",
		Description:  "One of the world's oldest and largest covered markets: 61 streets, four thousand shops, and five centuries of haggling under painted vaults.",
		Rating:       4.4,
		ReviewCount:  120542,
		Duration:     "1-3 hours",
		Location:     "Beyazıt, Istanbul",
		Address:      "Beyazıt, Kalpakçılar Cd. No:22, 34126 Fatih/İstanbul, Turkey",
		Lat:          41.0108,
		Lng:          28.9680,
		OpeningHours: "Mon-Sat 09:00-19:00, closed Sundays",
		Types:        []string{"market", "shopping", "historic"},
		Website:      "https://www.grandbazaaristanbul.org",
		Photos: []string{
			"https://images.venuery.dev/fixtures/grand-bazaar-1.jpg",
			"https://images.venuery.dev/fixtures/grand-bazaar-2.jpg",
		},
		Sources: []string{"fixture"},
	},
	"galata tower": {
		Title:        "Galata Tower",
		Description:  "Medieval Genoese watchtower crowning the Galata skyline, with a 360-degree viewing balcony over the Golden Horn and the Bosphorus.",
		Rating:       4.3,
		ReviewCount:  54230,
		PriceRange:   "$$",
		Duration:     "under 1 hour",
		Location:     "Galata, Istanbul",
		Address:      "Bereketzade, Galata Kulesi, 34421 Beyoğlu/İstanbul, Turkey",
		Lat:          41.0256,
		Lng:          28.9744,
		OpeningHours: "Daily 08:30-23:00",
		Types:        []string{"tower", "viewpoint", "attraction"},
		Website:      "https://www.galatakulesi.istanbul",
		Photos: []string{
			"https://images.venuery.dev/fixtures/galata-1.jpg",
		},
		Sources: []string{"fixture"},
	},
	"basilica cistern": {
		Title:        "Basilica Cistern",
		Description:  "Sixth-century underground cistern held up by a forest of 336 marble columns, two of them resting on carved Medusa heads.",
		Rating:       4.5,
		ReviewCount:  61834,
		PriceRange:   "$$",
		Duration:     "under 1 hour",
		Location:     "Sultanahmet, Istanbul",
		Address:      "Alemdar, Yerebatan Cd. 1/3, 34110 Fatih/İstanbul, Turkey",
		Lat:          41.0084,
		Lng:          28.9779,
		OpeningHours: "Daily 09:00-22:00",
		Types:        []string{"cistern", "historic", "attraction"},
		Website:      "https://yerebatan.com",
		Photos: []string{
			"https://images.venuery.dev/fixtures/cistern-1.jpg",
			"https://images.venuery.dev/fixtures/cistern-2.jpg",
		},
		Sources: []string{"fixture"},
	},
}
