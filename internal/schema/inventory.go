// Package schema inventories the fields and JSON types found in the stored
// documents of a league season.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"fpl-league-stats/internal/store"
)

type Inventory struct {
	Season    string     `json:"season"`
	LeagueID  int        `json:"league_id"`
	Documents []Document `json:"documents"`
}

type Document struct {
	Kind   store.Kind `json:"kind"`
	Path   string     `json:"path"`
	Fields []Field    `json:"fields"`
}

// Field is one JSON path with every type seen there and how many values
// were found at it.
type Field struct {
	Path  string   `json:"path"`
	Types []string `json:"types"`
	Count int      `json:"count"`
}

type seen struct {
	types map[string]struct{}
	count int
}

type walker map[string]*seen

// Build scans every stored document of the season and league. Missing
// documents are left out; a league with no documents at all is ErrNoData.
func Build(st *store.JSONStore, season string, leagueID int) (*Inventory, error) {
	inv := &Inventory{Season: season, LeagueID: leagueID}
	for _, kind := range store.Kinds {
		var v any
		found, err := st.ReadDocument(season, leagueID, kind, &v)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		inv.Documents = append(inv.Documents, Document{
			Kind:   kind,
			Path:   st.Path(season, leagueID, kind),
			Fields: Walk(v),
		})
	}
	if len(inv.Documents) == 0 {
		return nil, fmt.Errorf("%w for season %s and league %d", store.ErrNoData, season, leagueID)
	}
	return inv, nil
}

// Walk lists the fields of a decoded JSON value, sorted by path. Every array
// element is visited, and objects keyed by numeric ids (the users and
// players documents) collapse their keys into a single "{id}" segment.
func Walk(v any) []Field {
	w := walker{}
	w.walk(v, "$")
	return w.fields()
}

func (w walker) walk(v any, path string) {
	switch x := v.(type) {
	case map[string]any:
		w.add(path, "object")
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		byID := idKeyed(keys)
		for _, k := range keys {
			seg := "." + k
			if byID {
				seg = ".{id}"
			}
			w.walk(x[k], path+seg)
		}
	case []any:
		w.add(path, "array")
		for _, e := range x {
			w.walk(e, path+"[]")
		}
	case string:
		w.add(path, "string")
	case bool:
		w.add(path, "bool")
	case float64:
		if x == float64(int64(x)) {
			w.add(path, "integer")
		} else {
			w.add(path, "number")
		}
	case nil:
		w.add(path, "null")
	default:
		w.add(path, fmt.Sprintf("%T", v))
	}
}

func idKeyed(keys []string) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if _, err := strconv.Atoi(k); err != nil {
			return false
		}
	}
	return true
}

func (w walker) add(path string, typ string) {
	s, ok := w[path]
	if !ok {
		s = &seen{types: map[string]struct{}{}}
		w[path] = s
	}
	s.types[typ] = struct{}{}
	s.count++
}

func (w walker) fields() []Field {
	paths := make([]string, 0, len(w))
	for p := range w {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]Field, 0, len(paths))
	for _, p := range paths {
		types := make([]string, 0, len(w[p].types))
		for t := range w[p].types {
			types = append(types, t)
		}
		sort.Strings(types)
		out = append(out, Field{Path: p, Types: types, Count: w[p].count})
	}
	return out
}

// Write renders inv as indented JSON to path, or to out when path is empty.
func Write(inv *Inventory, path string, out io.Writer) error {
	payload, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	if path == "" {
		if out == nil {
			return errors.New("no output")
		}
		_, err := out.Write(payload)
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
