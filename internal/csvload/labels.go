package csvload

import (
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
)

// labelAllowedChar mirrors the original tool's character-class table
// (spec §9): letters, digits, and a restricted punctuation subset.
// Anything outside this set is reported as a LABEL_INVALID_CHAR
// datacheck entry (not an ErrorList error) unless it is a control byte, which is a fatal parse error instead.
func labelAllowedChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '/' || c == '_' || c == '(' || c == ')':
		return true
	default:
		return false
	}
}

// ValidateLabelChars checks one label's raw text (including any leading
// +/* prefix) against the allowed character set. Control bytes (<0x20)
// or DEL (0x7F) are fatal parse errors (non-ASCII is likewise fatal, per
// spec §9); anything else outside the allowed set raises
// LABEL_INVALID_CHAR. A bad leading +/* combination (e.g. "++", "*+")
// also raises LABEL_INVALID_CHAR.
func ValidateLabelChars(route *model.Route, rawLabel string, dc *datacheck.Engine, errs *perr.ErrorList) {
	body := rawLabel
	prefix := 0
	if strings.HasPrefix(body, "+") || strings.HasPrefix(body, "*") {
		prefix++
		if len(body) > 1 && (body[1] == '+' || body[1] == '*') {
			dc.Add(route, rawLabel, "", "", datacheck.LabelInvalidChar, "")
			return
		}
	}

	bad := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c < 0x20 || c == 0x7F {
			errs.Add("control byte in label %q on route %s", rawLabel, route.Root)
			return
		}
		if c > 0x7E {
			errs.Add("non-ASCII byte in label %q on route %s", rawLabel, route.Root)
			return
		}
		if i < prefix {
			continue // +/* already validated above
		}
		if !labelAllowedChar(c) {
			bad = true
		}
	}
	if bad {
		dc.Add(route, rawLabel, "", "", datacheck.LabelInvalidChar, "")
	}

	checkLabelShape(route, rawLabel, dc)
}

// checkLabelShape applies the family of label-shape checks named in
// spec §4.C: parens, slashes, underscore placement/runs, first/last
// character restrictions, bare US-route letters, and missing hyphen on
// Interstate-style labels.
func checkLabelShape(route *model.Route, rawLabel string, dc *datacheck.Engine) {
	label := strings.TrimPrefix(strings.TrimPrefix(rawLabel, "+"), "*")
	if label == "" {
		return
	}

	if strings.ContainsAny(label, "()") {
		dc.Add(route, rawLabel, "", "", datacheck.LabelParens, "")
	}
	if strings.Contains(label, "/") {
		dc.Add(route, rawLabel, "", "", datacheck.LabelSlashes, "")
	}
	if strings.Contains(label, "_") {
		dc.Add(route, rawLabel, "", "", datacheck.LabelUnderscores, "")
		if strings.Contains(label, "__") {
			dc.Add(route, rawLabel, "", "", datacheck.LongUnderscore, "")
		}
		if strings.Contains(label[:len(label)-1], "_") {
			dc.Add(route, rawLabel, "", "", datacheck.NonterminalUnderscore, "")
		}
	}

	first, last := label[0], label[len(label)-1]
	if !(first >= 'A' && first <= 'Z') && !(first >= '0' && first <= '9') {
		dc.Add(route, rawLabel, "", "", datacheck.InvalidFirstChar, string(first))
	}
	if !(last >= 'A' && last <= 'Z') && !(last >= '0' && last <= '9') {
		dc.Add(route, rawLabel, "", "", datacheck.InvalidFinalChar, string(last))
	}

	if label == "US" {
		dc.Add(route, rawLabel, "", "", datacheck.USLetter, "")
	}
	if strings.HasPrefix(label, "I") && len(label) > 1 && label[1] != '-' &&
		label[1] >= '0' && label[1] <= '9' {
		dc.Add(route, rawLabel, "", "", datacheck.InterstateNoHyphen, "")
	}
	checkBusWithI(route, rawLabel, label, dc)
	checkLabelLooksHidden(route, rawLabel, label, dc)
	checkLabelSelfref(route, rawLabel, label, dc)
	checkLabelCase(route, rawLabel, label, dc)

	if len(rawLabel) > maxLabelLen {
		dc.Add(route, rawLabel, "", "", datacheck.LabelTooLong, "")
	}
}

// maxLabelLen matches the waypoint label column's DB width (§4.L): a
// label beyond it can't fit and gets flagged rather than silently
// truncated downstream.
const maxLabelLen = 100

// checkBusWithI flags an Interstate label carrying a "Bus" suffix after
// its number (e.g. "I-40Bus"), grounded on Waypoint.cpp's bus_with_i.
func checkBusWithI(route *model.Route, rawLabel, label string, dc *datacheck.Engine) {
	if len(label) < 3 || label[0] != 'I' || label[1] != '-' {
		return
	}
	rest := label[2:]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if strings.HasPrefix(rest[i:], "Bus") {
		dc.Add(route, rawLabel, "", "", datacheck.BusWithI, "")
	}
}

// checkLabelLooksHidden flags a visible-looking label that matches the
// hidden-point shape (X followed by 6 digits) without actually being
// hidden, grounded on Waypoint.cpp's label_looks_hidden.
func checkLabelLooksHidden(route *model.Route, rawLabel, label string, dc *datacheck.Engine) {
	if len(label) != 7 || label[0] != 'X' {
		return
	}
	for _, c := range label[1:] {
		if c < '0' || c > '9' {
			return
		}
	}
	dc.Add(route, rawLabel, "", "", datacheck.LabelLooksHidden, "")
}

// checkLabelSelfref flags a label that redundantly encodes its own
// route's designation, grounded on Waypoint.cpp's label_selfref: either
// a "/"-suffix matching the route's number (or its trailing digit run,
// so "NY50" is fine on route "NY5" but "NY5/5" is not), or the label
// starting with the literal route+banner text followed by end, '_', or
// '/'.
func checkLabelSelfref(route *model.Route, rawLabel, label string, dc *datacheck.Engine) {
	if idx := strings.LastIndexByte(label, '/'); idx >= 0 && idx+1 < len(label) {
		name := route.Name
		if n := len(name); n > 0 && name[n-1] >= '0' && name[n-1] <= '9' {
			digitsStart := n
			for digitsStart > 0 && name[digitsStart-1] >= '0' && name[digitsStart-1] <= '9' {
				digitsStart--
			}
			after, _, _ := strings.Cut(label[idx+1:], "_")
			if after == name || after == name[digitsStart:] {
				dc.Add(route, rawLabel, "", "", datacheck.LabelSelfref, "")
				return
			}
		}
	}

	routeBanner := route.Name + route.Banner
	if strings.HasPrefix(label, routeBanner) {
		rest := label[len(routeBanner):]
		if rest == "" || rest[0] == '_' || rest[0] == '/' {
			dc.Add(route, rawLabel, "", "", datacheck.LabelSelfref, "")
		}
	}
}

// checkLabelCase flags lowercase letters in a label: a trailing
// lowercase letter right after a digit (e.g. "50a") is the common
// directional-suffix typo and gets LOWERCASE_SUFFIX; any other
// lowercase usage gets the more general LABEL_LOWERCASE. Neither check
// has a surviving original_source implementation to port (the header
// declares label_lowercase/lowercase_suffix but no body defines them),
// so this is a reasoned reading of the Datacheck.h doc table rather
// than a port.
func checkLabelCase(route *model.Route, rawLabel, label string, dc *datacheck.Engine) {
	hasLower := false
	for i := 0; i < len(label); i++ {
		if label[i] >= 'a' && label[i] <= 'z' {
			hasLower = true
			break
		}
	}
	if !hasLower {
		return
	}
	j := len(label)
	for j > 0 && label[j-1] >= 'a' && label[j-1] <= 'z' {
		j--
	}
	if j > 0 && j < len(label) && label[j-1] >= '0' && label[j-1] <= '9' {
		dc.Add(route, rawLabel, "", "", datacheck.LowercaseSuffix, "")
		return
	}
	dc.Add(route, rawLabel, "", "", datacheck.LabelLowercase, "")
}

// checkLacksGeneric flags a visible point on a bannered route (e.g. "US
// 50 Bus") whose label is just the route's bare number, with no letter
// distinguishing it from the unbannered parent route's own points.
// Waypoint.h declares lacks_generic with no surviving implementation
// body anywhere in original_source, so this is a reasoned approximation
// rather than a port.
func checkLacksGeneric(route *model.Route, w *model.Waypoint, dc *datacheck.Engine) {
	if route.Banner == "" {
		return
	}
	label := strings.TrimPrefix(strings.TrimPrefix(w.Label, "+"), "*")
	if label == route.Name {
		dc.Add(route, w.Label, "", "", datacheck.LacksGeneric, "")
	}
}
