package codelist

import "strings"

// UnitPiece is the Rec 20 code for "one" (unit, piece)
const UnitPiece = "C62"

// UN/ECE Recommendation 20 codes keyed by lower-case unit name
var uomCodes = map[string]string{
	"unit":        "C62",
	"units":       "C62",
	"piece":       "C62",
	"pieces":      "C62",
	"pce":         "C62",
	"pc":          "C62",
	"dozen":       "DZN",
	"dozens":      "DZN",
	"kg":          "KGM",
	"kilogram":    "KGM",
	"g":           "GRM",
	"gram":        "GRM",
	"mg":          "MGM",
	"t":           "TNE",
	"ton":         "TNE",
	"tonne":       "TNE",
	"lb":          "LBR",
	"lbs":         "LBR",
	"oz":          "ONZ",
	"day":         "DAY",
	"days":        "DAY",
	"hour":        "HUR",
	"hours":       "HUR",
	"minute":      "MIN",
	"minutes":     "MIN",
	"week":        "WEE",
	"month":       "MON",
	"year":        "ANN",
	"m":           "MTR",
	"meter":       "MTR",
	"metre":       "MTR",
	"km":          "KTM",
	"cm":          "CMT",
	"mm":          "MMT",
	"in":          "INH",
	"inch":        "INH",
	"inches":      "INH",
	"ft":          "FOT",
	"foot":        "FOT",
	"feet":        "FOT",
	"mi":          "SMI",
	"mile":        "SMI",
	"m²":          "MTK",
	"m2":          "MTK",
	"ft²":         "FTK",
	"ft2":         "FTK",
	"l":           "LTR",
	"liter":       "LTR",
	"litre":       "LTR",
	"ml":          "MLT",
	"m³":          "MTQ",
	"m3":          "MTQ",
	"gal (us)":    "GLL",
	"gallon":      "GLL",
	"in³":         "INQ",
	"ft³":         "FTQ",
	"kwh":         "KWH",
	"set":         "SET",
	"pack":        "PK",
	"box":         "BX",
	"pair":        "PR",
	"lump sum":    "LS",
	"service":     "C62",
	"hectare":     "HAR",
	"fl oz (us)":  "OZA",
	"qt (us)":     "QT",
	"sheet":       "ST",
	"roll":        "RO",
	"bottle":      "BO",
	"carton":      "CT",
	"pallet":      "PF",
	"percent":     "P1",
	"kilowatt":    "KWT",
	"megawatt hr": "MWH",
}

// known Rec 20 codes accepted verbatim
var rec20Codes = func() map[string]bool {
	m := make(map[string]bool, len(uomCodes))
	for _, code := range uomCodes {
		m[code] = true
	}
	m["H87"] = true
	m["EA"] = true
	m["XPP"] = true
	return m
}()

// UoMCode maps a unit name to its UN/ECE Rec 20 code.
// An empty name maps to C62. Unknown names return the name itself and false.
func UoMCode(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return UnitPiece, true
	}
	if rec20Codes[strings.ToUpper(trimmed)] {
		return strings.ToUpper(trimmed), true
	}
	if code, ok := uomCodes[strings.ToLower(trimmed)]; ok {
		return code, true
	}
	return trimmed, false
}
