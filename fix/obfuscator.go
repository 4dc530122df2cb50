/*
fixdecoder — FIX protocol decoder tools
Copyright (C) 2025 Steve Clarke <stephenlclarke@mac.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.

In accordance with section 13 of the AGPL, if you modify this program,
your modified version must prominently offer all users interacting with it
remotely through a computer network an opportunity to receive the source
code of your version.
*/

// Package fix implements ambient, optional tooling around the wire codecs:
// a log-line obfuscator that redacts sensitive tag values before they reach
// a logger, without touching the underlying decode/encode path.
package fix

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/edgewater-trading/gofix/dictionary"
)

// DefaultSeparator is the SOH byte production FIX traffic is delimited by.
const DefaultSeparator = '\x01'

// Obfuscator replaces values of sensitive FIX tags with stable aliases
// before a raw tag-value line is written to a log. It resolves tag names
// through a Dictionary instead of a hardcoded map, so the same obfuscator
// works across every FIX/FIXT version this module ships, and its field
// separator is configurable to match tagvalue.WithSeparator.
// It is safe for concurrent use.
type Obfuscator struct {
	enabled   bool
	dict      *dictionary.Dictionary
	sensitive map[uint32]struct{}
	separator byte

	mu       sync.Mutex
	aliasMap map[string]string // "tag=value" -> alias
	counter  map[uint32]int    // per-tag, for zero-padded suffixes
}

// Option configures an Obfuscator at construction time.
type Option func(*Obfuscator)

// WithSeparator overrides the default SOH field separator.
func WithSeparator(sep byte) Option {
	return func(o *Obfuscator) { o.separator = sep }
}

// NewObfuscator constructs an Obfuscator that redacts sensitiveTags, naming
// each alias after the tag's field name in dict. If enabled is false,
// Enabled returns its input unchanged; ObfuscateLine redacts regardless of
// enabled.
func NewObfuscator(dict *dictionary.Dictionary, sensitiveTags []uint32, enabled bool, opts ...Option) *Obfuscator {
	set := make(map[uint32]struct{}, len(sensitiveTags))
	for _, tag := range sensitiveTags {
		set[tag] = struct{}{}
	}

	o := &Obfuscator{
		enabled:   enabled,
		dict:      dict,
		sensitive: set,
		separator: DefaultSeparator,
		aliasMap:  make(map[string]string),
		counter:   make(map[uint32]int),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enabled returns line unchanged if obfuscation is disabled, otherwise
// returns the obfuscated version and logs first-use events to stderr (if
// non-nil).
func (o *Obfuscator) Enabled(line string, stderr io.Writer) string {
	if !o.enabled {
		return line
	}
	return o.ObfuscateLine(line, stderr)
}

// ObfuscateLine rewrites a single separator-delimited FIX line, replacing
// values for sensitive tags. On first occurrence of any tag=value pair, it
// logs to stderr (if provided).
func (o *Obfuscator) ObfuscateLine(line string, stderr io.Writer) string {
	sep := string(o.separator)
	fields := strings.Split(line, sep)

	for i, f := range fields {
		tagStr, val, ok := splitOnce(f, o.separator)
		if !ok {
			continue
		}

		tagNum, err := strconv.ParseUint(tagStr, 10, 32)
		if err != nil {
			continue
		}
		tag := uint32(tagNum)

		if _, sensitive := o.sensitive[tag]; !sensitive {
			continue
		}
		name := o.fieldName(tag)

		key := tagStr + "=" + val

		o.mu.Lock()
		alias, exists := o.aliasMap[key]
		if !exists {
			o.counter[tag]++
			alias = fmt.Sprintf("%s%04d", name, o.counter[tag])
			o.aliasMap[key] = alias

			if stderr != nil {
				fmt.Fprintf(stderr, "first use: tag %d (%s) value [%s] -> [%s]\n", tag, name, val, alias)
			}
		}
		o.mu.Unlock()

		fields[i] = tagStr + "=" + alias
	}

	return strings.Join(fields, sep)
}

// fieldName resolves tag to its dictionary-declared name, falling back to
// the bare numeric tag when no dictionary is configured or the tag is
// unknown to it.
func (o *Obfuscator) fieldName(tag uint32) string {
	if o.dict == nil {
		return strconv.FormatUint(uint64(tag), 10)
	}
	if field, ok := o.dict.FieldByTag(tag); ok {
		return field.Name
	}
	return strconv.FormatUint(uint64(tag), 10)
}

func splitOnce(s string, sep byte) (left, right string, ok bool) {
	idx := strings.IndexAny(s, "="+string(sep))
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}
