// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package recommend

import (
	"fmt"
	"strings"

	"github.com/harukimoto/oshifeed/internal/config"
	"github.com/harukimoto/oshifeed/internal/feature"
)

// Tag is one dictionary topic with its title-match keywords.
type Tag struct {
	Name     string
	Keywords []string
}

// Dictionary is the ordered universe of addressable topics. Declaration
// order is significant: it is the deterministic tie-break when topics have
// equal profile scores.
type Dictionary struct {
	tags  []Tag
	index map[string]int
}

// NewDictionary builds a dictionary from configuration entries, preserving
// declaration order.
func NewDictionary(entries []config.TagEntry) (*Dictionary, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("dictionary must not be empty")
	}

	d := &Dictionary{
		tags:  make([]Tag, 0, len(entries)),
		index: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("dictionary entry with empty name")
		}
		if _, dup := d.index[e.Name]; dup {
			return nil, fmt.Errorf("duplicate dictionary tag %q", e.Name)
		}
		d.index[e.Name] = len(d.tags)
		d.tags = append(d.tags, Tag{Name: e.Name, Keywords: append([]string(nil), e.Keywords...)})
	}
	return d, nil
}

// Tags returns the topics in declaration order.
func (d *Dictionary) Tags() []Tag {
	return d.tags
}

// Names returns the topic names in declaration order.
func (d *Dictionary) Names() []string {
	names := make([]string, len(d.tags))
	for i, t := range d.tags {
		names[i] = t.Name
	}
	return names
}

// Len returns the number of topics.
func (d *Dictionary) Len() int {
	return len(d.tags)
}

// Order returns a topic's declaration position, or -1 when unknown.
func (d *Dictionary) Order(name string) int {
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// Contains reports whether name is a dictionary topic.
func (d *Dictionary) Contains(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Keywords returns a topic's keyword list, nil when unknown.
func (d *Dictionary) Keywords(name string) []string {
	if i, ok := d.index[name]; ok {
		return d.tags[i].Keywords
	}
	return nil
}

// Matches reports whether the title contains any of the topic's keywords.
// Matching is a plain substring check with the dictionary's own casing; no
// normalization is applied.
func (d *Dictionary) Matches(name, title string) bool {
	for _, kw := range d.Keywords(name) {
		if kw != "" && strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// pseudoTags is the closed set of feature-derived score-namespace entries.
var pseudoTags = map[string]struct{}{
	string(feature.FormatShort):    {},
	string(feature.FormatArchive):  {},
	string(feature.FormatVideo):    {},
	string(feature.LengthUnder1H):  {},
	string(feature.Length1HTo2H):   {},
	string(feature.Length2HPlus):   {},
	string(feature.FlagSeries):     {},
	string(feature.FlagStandalone): {},
}

// ValidTag reports whether name is addressable in the score namespace: a
// dictionary topic or a feature pseudo-tag. Feedback payloads are validated
// against this before any profile mutation.
func (d *Dictionary) ValidTag(name string) bool {
	if d.Contains(name) {
		return true
	}
	_, ok := pseudoTags[name]
	return ok
}
