package core

import (
	"maps"
	"strings"
)

// minScanICCIDLength is the ICCID length at which ScanText considers a
// record complete. Shorter ICCIDs keep accumulating until end of input.
const minScanICCIDLength = 19

// scanKeys maps lower-cased free-text keys to profile fields.
var scanKeys = map[string]string{
	"name":          "name",
	"profile name":  "name",
	"profile_name":  "name",
	"iccid":         "iccid",
	"icc-id":        "iccid",
	"icc_id":        "iccid",
	"imsi":          "imsi",
	"ki":            "ki",
	"key":           "ki",
	"opc":           "opc",
	"op":            "opc",
	"operator code": "opc",
	"standard":      "standard",
	"spec":          "standard",
	"specification": "standard",
	"status":        "status",
	"state":         "status",
}

// ScanText extracts profile field maps from loosely structured text such
// as "ICCID: 8991101200003204514" lines. Blank lines and lines starting
// with '#' are ignored. Each line is split on its first ':' and keys are
// matched case-insensitively against known synonyms.
//
// A record closes as soon as its iccid reaches minScanICCIDLength
// characters, unless an identical record was already collected, in which
// case accumulation continues. A trailing record is kept if it has an
// iccid of any length. Trailing fields without an iccid complete the last
// record, so "ICCID: ...\nName: ..." yields one profile; they never
// overwrite a field that record already has. Nothing is persisted.
func ScanText(text string) ScanResult {
	profiles := []map[string]string{}
	current := map[string]string{}

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if key, value, ok := strings.Cut(line, ":"); ok {
			if field, known := scanKeys[strings.ToLower(strings.TrimSpace(key))]; known {
				current[field] = strings.TrimSpace(value)
			}
		}

		if iccid, ok := current["iccid"]; ok && len(iccid) >= minScanICCIDLength && !containsRecord(profiles, current) {
			profiles = append(profiles, maps.Clone(current))
			current = map[string]string{}
		}
	}

	if _, ok := current["iccid"]; ok {
		profiles = append(profiles, current)
	} else if len(current) > 0 && len(profiles) > 0 {
		last := profiles[len(profiles)-1]
		for k, v := range current {
			if _, set := last[k]; !set {
				last[k] = v
			}
		}
	}

	return ScanResult{
		Success:       true,
		ProfilesFound: len(profiles),
		Profiles:      profiles,
	}
}

func containsRecord(records []map[string]string, rec map[string]string) bool {
	for _, r := range records {
		if maps.Equal(r, rec) {
			return true
		}
	}
	return false
}
