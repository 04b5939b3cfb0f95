// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package directory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"

	"github.com/sprucehealth/switchboard/model"
)

const currentRosterVersion = 1

var (
	ErrDuplicateExtension = errors.New("duplicate extension")
	ErrInvalidExtension   = errors.New("extension must be 3 digits")
	ErrInvalidNumber      = errors.New("number must be E.164")
	ErrMissingName        = errors.New("entry has no name")
)

var (
	extensionPattern = regexp.MustCompile(`^[0-9]{3}$`)
	e164Pattern      = regexp.MustCompile(`^\+[1-9][0-9]{1,14}$`)
)

// Directory is an immutable company roster. It is safe for concurrent use.
type Directory struct {
	entries []model.DirectoryEntry
	keys    []nameKeys
	byExt   map[string]int
}

// nameKeys holds the normalized forms of an entry used for scoring
type nameKeys struct {
	first     string
	last      string
	full      string
	lastFirst string
	aliases   []string
}

type rosterSchema struct {
	Version int                    `toml:"version"`
	Entries []model.DirectoryEntry `toml:"entries"`
}

// New validates entries and builds a Directory. The entries are copied.
func New(entries []model.DirectoryEntry) (*Directory, error) {
	d := &Directory{
		entries: make([]model.DirectoryEntry, 0, len(entries)),
		keys:    make([]nameKeys, 0, len(entries)),
		byExt:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("directory entry %d (%s): %w", i, e.FullName(), err)
		}
		if _, exists := d.byExt[e.Extension]; exists {
			return nil, fmt.Errorf("directory entry %d (%s): %w %s", i, e.FullName(), ErrDuplicateExtension, e.Extension)
		}
		e.Aliases = slices.Clone(e.Aliases)
		d.add(e)
	}
	return d, nil
}

func (d *Directory) add(e model.DirectoryEntry) {
	first := Normalize(e.FirstName)
	last := Normalize(e.LastName)
	keys := nameKeys{
		first:     first,
		last:      last,
		full:      Normalize(e.FirstName + " " + e.LastName),
		lastFirst: Normalize(e.LastName + " " + e.FirstName),
	}
	for _, alias := range e.Aliases {
		if a := Normalize(alias); a != "" {
			keys.aliases = append(keys.aliases, a)
		}
	}
	d.byExt[e.Extension] = len(d.entries)
	d.entries = append(d.entries, e)
	d.keys = append(d.keys, keys)
}

func validateEntry(e model.DirectoryEntry) error {
	if Normalize(e.FirstName) == "" && Normalize(e.LastName) == "" {
		return ErrMissingName
	}
	if !extensionPattern.MatchString(e.Extension) {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, e.Extension)
	}
	if !e164Pattern.MatchString(e.Number) {
		return fmt.Errorf("%w: %q", ErrInvalidNumber, e.Number)
	}
	return nil
}

// Load reads a TOML roster of [[entries]] tables.
func Load(r io.Reader) (*Directory, error) {
	var file rosterSchema
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&file); err != nil {
		return nil, fmt.Errorf("decode directory roster: %w", err)
	}
	if file.Version > currentRosterVersion {
		return nil, fmt.Errorf("unsupported directory roster version %d (current %d)", file.Version, currentRosterVersion)
	}
	return New(file.Entries)
}

// LoadFile reads a TOML roster from path.
func LoadFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open directory roster: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Len returns the number of entries
func (d *Directory) Len() int {
	return len(d.entries)
}

// Entries returns a copy of the roster in its configured order
func (d *Directory) Entries() []model.DirectoryEntry {
	out := make([]model.DirectoryEntry, len(d.entries))
	for i, e := range d.entries {
		e.Aliases = slices.Clone(e.Aliases)
		out[i] = e
	}
	return out
}

// Lookup finds an entry by its exact extension
func (d *Directory) Lookup(extension string) (model.DirectoryEntry, bool) {
	i, ok := d.byExt[extension]
	if !ok {
		return model.DirectoryEntry{}, false
	}
	e := d.entries[i]
	e.Aliases = slices.Clone(e.Aliases)
	return e, true
}

// Restrict returns a directory holding only the given extensions, in roster
// order. Unknown extensions are ignored.
func (d *Directory) Restrict(extensions []string) *Directory {
	sub := &Directory{byExt: make(map[string]int, len(extensions))}
	for i, e := range d.entries {
		if slices.Contains(extensions, e.Extension) {
			sub.byExt[e.Extension] = len(sub.entries)
			sub.entries = append(sub.entries, e)
			sub.keys = append(sub.keys, d.keys[i])
		}
	}
	return sub
}

// KnownName reports whether a normalized transcript mentions any entry's full
// name, or a first name, last name or alias longer than two characters.
func (d *Directory) KnownName(speech string) bool {
	speech = Normalize(speech)
	if speech == "" {
		return false
	}
	for _, k := range d.keys {
		if ContainsPhrase(speech, k.full) ||
			(longEnough(k.last) && ContainsPhrase(speech, k.last)) ||
			(longEnough(k.first) && ContainsPhrase(speech, k.first)) {
			return true
		}
		for _, a := range k.aliases {
			if longEnough(a) && ContainsPhrase(speech, a) {
				return true
			}
		}
	}
	return false
}

func longEnough(name string) bool {
	return utf8.RuneCountInString(name) > 2
}
