package syntax

import (
	"strings"

	perr "plancal/internal/errors"
	"plancal/internal/model"
)

var headerKeywords = []string{"TASK", "NOTE", "LOG", "TIMEZONE", "INCLUDE"}

func headerOf(l Line) string {
	c := cursorFor(l)
	for _, kw := range headerKeywords {
		if c.keyword(kw) {
			return kw
		}
	}
	return ""
}

// ParseDocument splits src into entries and parses each one on its own. A
// failing entry is reported in Document.Errors, tagged with its ID, and the
// remaining entries are still returned.
func ParseDocument(name, src string) *model.Document {
	doc := &model.Document{Name: name}
	lines := SplitLines(src, 1)

	var block []Line
	flush := func() {
		if len(block) == 0 {
			return
		}
		id := entryID(name, block[0].No)
		entry, err := ParseEntry(block)
		if err != nil {
			doc.Errors.Add(perr.WithEntry(err, id))
		} else {
			entry.ID = id
			doc.Entries = append(doc.Entries, entry)
		}
		block = nil
	}

	for _, l := range lines {
		switch headerOf(l) {
		case "TASK", "NOTE", "LOG":
			flush()
			block = append(block, l)
		case "TIMEZONE", "INCLUDE":
			flush()
			if err := parseDirective(doc, l); err != nil {
				doc.Errors.Add(perr.WithEntry(err, entryID(name, l.No)))
			}
		default:
			if block != nil {
				block = append(block, l)
				continue
			}
			if strings.TrimSpace(l.Text) != "" {
				c := cursorFor(l)
				doc.Errors.Add(perr.WithEntry(c.errorf("expected TASK, NOTE, LOG, TIMEZONE or INCLUDE, found %s", c.describe()), entryID(name, l.No)))
			}
		}
	}
	flush()
	return doc
}

func parseDirective(doc *model.Document, l Line) error {
	c := cursorFor(l)
	switch {
	case c.keyword("TIMEZONE"):
		c.skipSpace()
		tz := strings.TrimSpace(c.rest())
		if tz == "" {
			return c.errorf("missing timezone name")
		}
		if doc.Timezone != "" && doc.Timezone != tz {
			return perr.Semanticf(perr.Pos{Line: l.No, Column: 1}, "conflicting TIMEZONE %s, already set to %s", tz, doc.Timezone)
		}
		doc.Timezone = tz
	case c.keyword("INCLUDE"):
		c.skipSpace()
		path := strings.TrimSpace(c.rest())
		if path == "" {
			return c.errorf("missing include path")
		}
		doc.Includes = append(doc.Includes, path)
	}
	return nil
}
