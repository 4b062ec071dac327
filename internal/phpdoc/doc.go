// Package phpdoc reads docblocks: it splits them into tags, parses the
// docblock type language and turns the result into metadata fragments.
//
// Tool-prefixed tags take priority over plain ones: when a docblock has
// `@phpstan-return` it wins over `@psalm-return`, which wins over `@return`.
package phpdoc

import (
	"strings"
)

type Tag struct {
	// Name is the tag name without the @, prefix included.
	Name  string
	Value string
}

// Doc is a parsed docblock.
type Doc struct {
	Summary string
	Tags    []Tag
}

var toolPrefixes = []string{"phpstan-", "psalm-", ""}

// Parse splits a /** ... */ comment into its summary and tags. A tag runs
// until the next line starting with @.
func Parse(comment string) Doc {
	var doc Doc
	var summary []string
	current := -1
	for _, line := range strings.Split(comment, "\n") {
		line = cleanLine(line)
		if strings.HasPrefix(line, "@") {
			name, value, _ := strings.Cut(line[1:], " ")
			name = strings.TrimSpace(name)
			// @param{...} style and @tag(...) annotations are not tags.
			if i := strings.IndexAny(name, "({\t"); i >= 0 {
				value = name[i:] + " " + value
				name = name[:i]
			}
			doc.Tags = append(doc.Tags, Tag{Name: strings.ToLower(name), Value: strings.TrimSpace(value)})
			current = len(doc.Tags) - 1
			continue
		}
		if current >= 0 {
			if line != "" {
				doc.Tags[current].Value = strings.TrimSpace(doc.Tags[current].Value + "\n" + line)
			}
			continue
		}
		summary = append(summary, line)
	}
	doc.Summary = strings.TrimSpace(strings.Join(summary, "\n"))
	return doc
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "/**")
	line = strings.TrimSuffix(line, "*/")
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "*") {
		line = strings.TrimSpace(line[1:])
	}
	return line
}

// Named returns the tags named name, preferring tool-prefixed variants. Only
// the highest-priority variant present is returned.
func (d Doc) Named(name string) []Tag {
	for _, prefix := range toolPrefixes {
		var out []Tag
		for _, t := range d.Tags {
			if t.Name == prefix+name {
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Tag returns the first tag named name, by priority.
func (d Doc) Tag(name string) (Tag, bool) {
	tags := d.Named(name)
	if len(tags) == 0 {
		return Tag{}, false
	}
	return tags[0], true
}

func (d Doc) Has(name string) bool {
	_, ok := d.Tag(name)
	return ok
}

// FamilyTags returns tags whose unprefixed name is one of names, in docblock
// order, using the highest-priority prefix found for any of them. Template
// tags use it so that `@template` and `@template-covariant` keep their
// relative order.
func (d Doc) FamilyTags(names ...string) []Tag {
	for _, prefix := range toolPrefixes {
		var out []Tag
		for _, t := range d.Tags {
			for _, n := range names {
				if t.Name == prefix+n {
					out = append(out, t)
					break
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
