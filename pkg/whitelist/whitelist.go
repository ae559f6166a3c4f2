// Package whitelist loads the set of advisory identifiers a check should
// ignore.
//
// A whitelist is usually a JSON array of identifiers:
//
//	["CVE-2015-1234", "CVE-2016-5678"]
//
// OpenVEX documents are accepted as well, in which case every vulnerability
// with a not_affected or fixed statement is whitelisted. Files with a .toml
// extension are read as a list of [[IgnoredVulns]] entries, each with an
// optional ignoreUntil date after which the entry no longer applies.
package whitelist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/openvex/go-vex/pkg/vex"
	"github.com/tidwall/gjson"
)

type Whitelist struct {
	ids map[string]struct{}
}

// New returns a whitelist containing ids.
func New(ids ...string) *Whitelist {
	w := &Whitelist{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		w.ids[id] = struct{}{}
	}

	return w
}

func (w *Whitelist) Contains(id string) bool {
	_, ok := w.ids[id]
	return ok
}

func (w *Whitelist) Len() int {
	return len(w.ids)
}

// IDs returns the whitelisted identifiers, sorted.
func (w *Whitelist) IDs() []string {
	ids := make([]string, 0, len(w.ids))
	for id := range w.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

// Load reads the whitelist at path.
func Load(path string) (*Whitelist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return parseTOML(data, time.Now())
	}

	return parseJSON(data)
}

func parseJSON(data []byte) (*Whitelist, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("whitelist is not valid JSON")
	}

	parsed := gjson.ParseBytes(data)

	switch {
	case parsed.IsArray():
		w := New()
		for i, el := range parsed.Array() {
			if el.Type != gjson.String {
				return nil, fmt.Errorf("whitelist entry %d is not a string: %s", i, el.Raw)
			}
			w.ids[el.Str] = struct{}{}
		}

		return w, nil

	case parsed.IsObject() && parsed.Get("statements").Exists():
		return parseVEX(data)
	}

	return nil, errors.New("whitelist must be a JSON array of identifiers or an OpenVEX document")
}

func parseVEX(data []byte) (*Whitelist, error) {
	var doc vex.VEX
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse OpenVEX document: %w", err)
	}

	w := New()
	for _, s := range doc.Statements {
		if s.Vulnerability == "" {
			continue
		}

		if s.Status == vex.StatusNotAffected || s.Status == vex.StatusFixed {
			w.ids[s.Vulnerability] = struct{}{}
		}
	}

	return w, nil
}

type tomlWhitelist struct {
	IgnoredVulns []tomlEntry `toml:"IgnoredVulns"`
}

type tomlEntry struct {
	ID          string    `toml:"id"`
	IgnoreUntil time.Time `toml:"ignoreUntil,omitempty"`
	Reason      string    `toml:"reason,omitempty"`
}

func parseTOML(data []byte, now time.Time) (*Whitelist, error) {
	var doc tomlWhitelist
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("unable to parse TOML whitelist: %w", err)
	}

	w := New()
	for _, e := range doc.IgnoredVulns {
		if e.ID == "" {
			return nil, errors.New("whitelist entry is missing an id")
		}

		if !e.IgnoreUntil.IsZero() && now.After(e.IgnoreUntil) {
			continue
		}

		w.ids[e.ID] = struct{}{}
	}

	return w, nil
}
