// Package datacheck implements the single-point, per-route, and
// cross-route validity rules of spec §4.E, plus false-positive
// suppression against a datacheckfps.csv list.
package datacheck

// Code is one of the closed set of datacheck error codes.
type Code string

const (
	AbbrevAsChopBanner  Code = "ABBREV_AS_CHOP_BANNER"
	AbbrevAsConBanner   Code = "ABBREV_AS_CON_BANNER"
	AbbrevNoCity        Code = "ABBREV_NO_CITY"
	BadAngle            Code = "BAD_ANGLE"
	BusWithI            Code = "BUS_WITH_I"
	CombineConRoutes    Code = "COMBINE_CON_ROUTES"
	ConBannerMismatch   Code = "CON_BANNER_MISMATCH"
	ConRouteMismatch    Code = "CON_ROUTE_MISMATCH"
	DisconnectedRoute   Code = "DISCONNECTED_ROUTE"
	DuplicateCoords     Code = "DUPLICATE_COORDS"
	DuplicateLabel      Code = "DUPLICATE_LABEL"
	HiddenJunction      Code = "HIDDEN_JUNCTION"
	HiddenTerminus      Code = "HIDDEN_TERMINUS"
	InterstateNoHyphen  Code = "INTERSTATE_NO_HYPHEN"
	InvalidFinalChar    Code = "INVALID_FINAL_CHAR"
	InvalidFirstChar    Code = "INVALID_FIRST_CHAR"
	LabelInvalidChar    Code = "LABEL_INVALID_CHAR"
	LabelLooksHidden    Code = "LABEL_LOOKS_HIDDEN"
	LabelLowercase      Code = "LABEL_LOWERCASE"
	LabelParens         Code = "LABEL_PARENS"
	LabelSelfref        Code = "LABEL_SELFREF"
	LabelSlashes        Code = "LABEL_SLASHES"
	LabelTooLong        Code = "LABEL_TOO_LONG"
	LabelUnderscores    Code = "LABEL_UNDERSCORES"
	LacksGeneric        Code = "LACKS_GENERIC"
	LongSegment         Code = "LONG_SEGMENT"
	LongUnderscore      Code = "LONG_UNDERSCORE"
	LowercaseSuffix     Code = "LOWERCASE_SUFFIX"
	MalformedLat        Code = "MALFORMED_LAT"
	MalformedLon        Code = "MALFORMED_LON"
	MalformedURL        Code = "MALFORMED_URL"
	MultiRegionOverlap  Code = "MULTI_REGION_OVERLAP"
	NonterminalUnderscore Code = "NONTERMINAL_UNDERSCORE"
	OutOfBounds         Code = "OUT_OF_BOUNDS"
	SharpAngle          Code = "SHARP_ANGLE"
	SingleFieldLine     Code = "SINGLE_FIELD_LINE"
	USLetter            Code = "US_LETTER"
	VisibleDistance     Code = "VISIBLE_DISTANCE"
	VisibleHiddenColoc  Code = "VISIBLE_HIDDEN_COLOC"
)

// alwaysError is the subset of codes that can never be suppressed by an
// FP entry (§4.E). Loading an FP for one of these is itself a fatal
// error.
var alwaysError = map[Code]bool{
	BadAngle:              true,
	DuplicateLabel:        true,
	HiddenTerminus:        true,
	InvalidFirstChar:      true,
	InvalidFinalChar:      true,
	LabelInvalidChar:      true,
	LabelParens:           true,
	LabelSlashes:          true,
	LabelUnderscores:      true,
	LongUnderscore:        true,
	MalformedLat:          true,
	MalformedLon:          true,
	MalformedURL:          true,
	NonterminalUnderscore: true,
	USLetter:              true,
	InterstateNoHyphen:    true,
	ConBannerMismatch:     true,
	ConRouteMismatch:      true,
	AbbrevAsChopBanner:    true,
	AbbrevAsConBanner:     true,
	DisconnectedRoute:     true,
}

// AlwaysError reports whether c can never be suppressed as a false
// positive.
func AlwaysError(c Code) bool { return alwaysError[c] }
