package panchanga

// Option is one selectable value of a filter.
type Option struct {
	Value Code   `json:"value"`
	Label string `json:"label"`
}

// FilterDef describes a user-facing filter over one band.
type FilterDef struct {
	Key           string   `json:"key"`
	BandKey       string   `json:"band_key"`
	Label         string   `json:"label"`
	Helper        string   `json:"helper"`
	CustomOptions []Option `json:"custom_options,omitempty"`
}

// Preset is a named selection shortcut for a filter.
type Preset struct {
	Name   string `json:"name"`
	Values []Code `json:"values"`
}

func def(key, label, helper string) FilterDef {
	return FilterDef{Key: key, BandKey: key, Label: label, Helper: helper}
}

// FilterDefs lists the built-in filters in display order.
var FilterDefs = []FilterDef{
	def("vara", "Weekday (Vara)", "Focus on weekdays ruled by specific planets."),
	{
		Key:     "paksha",
		BandKey: "paksha",
		Label:   "Paksha (Fortnight)",
		Helper:  "Choose waxing (Shukla) or waning (Krishna) halves.",
		CustomOptions: []Option{
			{Value: "0", Label: "Shukla Paksha"},
			{Value: "1", Label: "Krishna Paksha"},
		},
	},
	def("tithi", "Tithi", "Select auspicious lunar days."),
	def("karana", "Karana", "Fine tune half-day segments."),
	def("nakshatra", "Moon Nakshatra", "Pick stellar influences of the Moon."),
	def("nak_pada", "Moon Nakshatra Pada", "Focus on specific quarters."),
	def("yoga", "Yoga", "Highlight benefic or malefic yogas."),
	def("hora_day", "Hora (Day)", "Emphasize daytime planetary horas."),
	def("hora_night", "Hora (Night)", "Emphasize nighttime planetary horas."),
	def("lagna", "Lagna (Ascendant)", "Filter by rising sign windows."),
	def("lunar_month_amanta", "Lunar Month (Amanta)", "Choose Amanta lunar months for planning rituals."),
	def("lunar_month_poornimanta", "Lunar Month (Poornimanta)", "Pick months using the Poornimanta convention."),
	def("solar_month", "Solar Month", "Align with Tamil/Malayalam solar months."),
	def("kala_day", "Kala Vela (Day)", "Use daytime Kala segments."),
	def("kala_night", "Kala Vela (Night)", "Night-time Kala vela segments."),
	def("gowri_day", "Gowri (Day)", "Daytime Gowri Panchanga parts."),
	def("gowri_night", "Gowri (Night)", "Nighttime Gowri Panchanga parts."),
	def("choghadiya_day", "Choghadiya (Day)", "Gujarati-style daytime choghadiya."),
	def("choghadiya_night", "Choghadiya (Night)", "Night choghadiya sequence."),
	def("sun_sign", "Sun Sign", "Solar longitude zodiac sign."),
	def("sun_nakshatra", "Sun Nakshatra", "Stellar region traversed by the Sun."),
	def("sun_pada", "Sun Nakshatra Pada", "Quarter of the Sun's nakshatra."),
	def("mars_sign", "Mars Sign", "Zodiac sign occupied by Mars."),
	def("mars_nakshatra", "Mars Nakshatra", "Stellar backdrop of Mars."),
	def("mars_pada", "Mars Nakshatra Pada", "Specific quarter for Mars."),
	def("mercury_sign", "Mercury Sign", "Zodiac sign occupied by Mercury."),
	def("mercury_nakshatra", "Mercury Nakshatra", "Stellar backdrop of Mercury."),
	def("mercury_pada", "Mercury Nakshatra Pada", "Specific quarter for Mercury."),
	def("jupiter_sign", "Jupiter Sign", "Zodiac sign occupied by Jupiter."),
	def("jupiter_nakshatra", "Jupiter Nakshatra", "Stellar backdrop of Jupiter."),
	def("jupiter_pada", "Jupiter Nakshatra Pada", "Specific quarter for Jupiter."),
	def("venus_sign", "Venus Sign", "Zodiac sign occupied by Venus."),
	def("venus_nakshatra", "Venus Nakshatra", "Stellar backdrop of Venus."),
	def("venus_pada", "Venus Nakshatra Pada", "Specific quarter for Venus."),
	def("saturn_sign", "Saturn Sign", "Zodiac sign occupied by Saturn."),
	def("saturn_nakshatra", "Saturn Nakshatra", "Stellar backdrop of Saturn."),
	def("saturn_pada", "Saturn Nakshatra Pada", "Specific quarter for Saturn."),
	def("rahu_sign", "Rahu Sign", "Zodiac sign of mean Rahu."),
	def("rahu_nakshatra", "Rahu Nakshatra", "Stellar backdrop of mean Rahu."),
	def("rahu_pada", "Rahu Nakshatra Pada", "Specific quarter for Rahu."),
	def("ketu_sign", "Ketu Sign", "Zodiac sign opposite Rahu (Ketu)."),
	def("ketu_nakshatra", "Ketu Nakshatra", "Stellar backdrop of Ketu."),
	def("ketu_pada", "Ketu Nakshatra Pada", "Specific quarter for Ketu."),
}

var filterIndex = func() map[string]FilterDef {
	m := make(map[string]FilterDef, len(FilterDefs))
	for _, d := range FilterDefs {
		m[d.Key] = d
	}
	return m
}()

// LookupFilter returns the built-in definition for key.
func LookupFilter(key string) (FilterDef, bool) {
	d, ok := filterIndex[key]
	return d, ok
}

func codeRange(from, to int) []Code {
	out := make([]Code, 0, to-from+1)
	for i := from; i <= to; i++ {
		c, _ := NormalizeCode(i)
		out = append(out, c)
	}
	return out
}

func codes(values ...int) []Code {
	out := make([]Code, 0, len(values))
	for _, v := range values {
		c, _ := NormalizeCode(v)
		out = append(out, c)
	}
	return out
}

// Presets are quick selections per filter key.
var Presets = map[string][]Preset{
	"tithi": {
		{Name: "Shukla only", Values: codeRange(1, 15)},
		{Name: "Krishna only", Values: codeRange(16, 30)},
		{Name: "Common auspicious", Values: codes(1, 2, 3, 5, 7, 8, 10, 11)},
	},
	"nakshatra": {
		{Name: "Favorable", Values: codes(1, 2, 4, 5, 7, 9, 13, 17, 18, 23)},
		{Name: "Avoidable", Values: codes(3, 6, 8, 10, 11, 14, 19, 21)},
	},
}
