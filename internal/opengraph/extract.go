package opengraph

import (
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

var stripTags = bluemonday.StripTagsPolicy()

// Extract scans an HTML document and returns its OpenGraph metadata.
// Each field takes the first non-empty match in this order:
//
//	title:       og:title, <title>, meta name=title
//	description: og:description, meta name=description
//	image:       og:image
//	siteName:    og:site_name
//
// Relative image and favicon URLs are resolved against base when it is
// non-nil. Attribute order inside a tag does not matter.
func Extract(r io.Reader, base *url.URL) Metadata {
	var (
		og         = map[string]string{}
		named      = map[string]string{}
		title      strings.Builder
		inTitle    bool
		titleFound bool
		favicon    string
	)

	z := xhtml.NewTokenizer(r)
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}

		switch tt {
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "meta":
				if !hasAttr {
					continue
				}
				attrs := readAttrs(z)
				content := attrs["content"]
				if p := strings.ToLower(attrs["property"]); strings.HasPrefix(p, "og:") {
					setFirst(og, p, content)
				}
				if n := strings.ToLower(attrs["name"]); n != "" {
					if strings.HasPrefix(n, "og:") {
						setFirst(og, n, content)
					} else {
						setFirst(named, n, content)
					}
				}
			case "title":
				if !titleFound && tt == xhtml.StartTagToken {
					inTitle = true
				}
			case "link":
				if favicon != "" || !hasAttr {
					continue
				}
				attrs := readAttrs(z)
				if isIconRel(attrs["rel"]) {
					favicon = strings.TrimSpace(attrs["href"])
				}
			}
		case xhtml.TextToken:
			if inTitle {
				title.Write(z.Text())
			}
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); string(name) == "title" && inTitle {
				inTitle = false
				titleFound = strings.TrimSpace(title.String()) != ""
				if !titleFound {
					title.Reset()
				}
			}
		}
	}

	md := Metadata{
		Title:       firstNonEmpty(og["og:title"], cleanText(title.String()), named["title"]),
		Description: firstNonEmpty(og["og:description"], named["description"]),
		Image:       resolveRef(base, og["og:image"]),
		SiteName:    og["og:site_name"],
		Type:        og["og:type"],
		Favicon:     resolveRef(base, favicon),
	}
	return md
}

func readAttrs(z *xhtml.Tokenizer) map[string]string {
	attrs := make(map[string]string, 4)
	for {
		key, val, more := z.TagAttr()
		k := strings.ToLower(string(key))
		if _, seen := attrs[k]; !seen {
			attrs[k] = string(val)
		}
		if !more {
			return attrs
		}
	}
}

func setFirst(m map[string]string, key, value string) {
	if _, ok := m[key]; ok {
		return
	}
	if v := cleanText(value); v != "" {
		m[key] = v
	}
}

func isIconRel(rel string) bool {
	for _, f := range strings.Fields(strings.ToLower(rel)) {
		if f == "icon" {
			return true
		}
	}
	return false
}

// cleanText strips markup, decodes entities and collapses whitespace.
func cleanText(s string) string {
	s = html.UnescapeString(stripTags.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
