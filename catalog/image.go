package catalog

import (
	"fmt"
	"strings"
)

const sanityImageCDN = "https://cdn.sanity.io"

// ImageURLBuilder maps Sanity image asset references to CDN URLs.
type ImageURLBuilder struct {
	ProjectID string
	Dataset   string
	BaseURL   string
}

// URL turns "image-<assetId>-<W>x<H>-<format>" into
// "<base>/images/<project>/<dataset>/<assetId>-<W>x<H>.<format>".
func (b ImageURLBuilder) URL(ref string) (string, error) {
	rest, ok := strings.CutPrefix(ref, "image-")
	if !ok {
		return "", fmt.Errorf("malformed image reference %q", ref)
	}

	i := strings.LastIndex(rest, "-")
	if i <= 0 || i == len(rest)-1 {
		return "", fmt.Errorf("malformed image reference %q", ref)
	}
	idAndDims, format := rest[:i], rest[i+1:]

	j := strings.LastIndex(idAndDims, "-")
	if j <= 0 {
		return "", fmt.Errorf("malformed image reference %q", ref)
	}
	dims := idAndDims[j+1:]
	if w, h, ok := strings.Cut(dims, "x"); !ok || !isDigits(w) || !isDigits(h) {
		return "", fmt.Errorf("malformed image dimensions in %q", ref)
	}

	base := b.BaseURL
	if base == "" {
		base = sanityImageCDN
	}
	return fmt.Sprintf("%s/images/%s/%s/%s.%s", strings.TrimRight(base, "/"), b.ProjectID, b.Dataset, idAndDims, format), nil
}

// URLs resolves every ref, skipping ones that do not parse.
func (b ImageURLBuilder) URLs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if u, err := b.URL(ref); err == nil {
			out = append(out, u)
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
