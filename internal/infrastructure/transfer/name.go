package transfer

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxNameLen = 180

// SafeName keeps the original file name readable while making it a single
// path element that is valid on common filesystems.
func SafeName(name string) string {
	s := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	s = path.Base(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`<>:"|?*`, r):
			return '_'
		}
		return r
	}, s)
	s = strings.TrimLeft(strings.TrimSpace(s), ".")
	if s == "" || s == "/" {
		return "file"
	}

	ext := path.Ext(s)
	base := strings.TrimSuffix(s, ext)
	for len(base)+len(ext) > maxNameLen && base != "" {
		_, size := utf8.DecodeLastRuneInString(base)
		base = base[:len(base)-size]
	}
	if base == "" {
		base = "file"
	}
	return base + ext
}
