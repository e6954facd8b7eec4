package backend

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The record store has shipped several generations of response shapes and
// never versioned them. Each logical value is read through an ordered list
// of extractors; the first one that yields a value wins.

func (o object) str(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Some deployments return numeric ids.
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (o object) obj(key string) object {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var nested object
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil
	}
	return nested
}

func (o object) boolVal(key string) bool {
	raw, ok := o[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

// firstString returns the first non-empty string among the candidate keys.
func firstString(o object, keys ...string) string {
	for _, key := range keys {
		if v := o.str(key); v != "" {
			return v
		}
	}
	return ""
}

// directoryRecord applies the two known directory shapes in order:
//  1. structured: {"exists": true, "employee": {...}} (or "customer")
//  2. legacy: {"employee": {...}} with a populated id and no exists flag
//
// Returns nil when neither shape carries a usable record.
func directoryRecord(o object, field string) object {
	if o == nil {
		return nil
	}
	record := o.obj(field)
	if record == nil {
		return nil
	}
	if _, hasFlag := o["exists"]; hasFlag {
		if !o.boolVal("exists") {
			return nil
		}
		return record
	}
	if record.str("id") == "" {
		return nil
	}
	return record
}

// registrationRecord applies the three known creation-response shapes in
// order: {"customer": {...}}, {"data": {...}}, then the flat object itself.
func registrationRecord(o object) object {
	if o == nil {
		return nil
	}
	if record := o.obj("customer"); record != nil && record.str("id") != "" {
		return record
	}
	if record := o.obj("data"); record != nil && record.str("id") != "" {
		return record
	}
	if o.str("id") != "" {
		return o
	}
	return nil
}

// sessionToken checks the candidate credential fields in fixed priority
// order and returns the first non-empty value.
func sessionToken(o object) string {
	return firstString(o, "token", "access_token", "jwt", "accessToken")
}

// parseRate reads rate_register_point however the backend encoded it:
// a JSON number, a numeric string, or one of the junk values historically
// observed (empty string, null, the literal "undefined"). Anything
// unparseable is zero, which suppresses the incentive.
func parseRate(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "undefined" || s == "null" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
