package compiler

import (
	"strings"
	"unicode"
)

// Media kinds with a built-in codec strategy.
const (
	MediaJSON = "json"
	MediaForm = "form"
	MediaAny  = "_any_"
)

// DefaultContentType is assumed for inputs and outputs that carry a type but
// declare no content type.
const DefaultContentType = "application/json"

var mediaKinds = map[string]string{
	"application/json":                  MediaJSON,
	"application/x-www-form-urlencoded": MediaForm,
	"_ANY_":                             MediaAny,
}

// MediaKind maps a content type to the short code used in codec function
// names. Unknown content types use their subtype with every character that
// cannot appear in an identifier removed.
func MediaKind(contentType string) string {
	ct := strings.TrimSpace(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if kind, ok := mediaKinds[ct]; ok {
		return kind
	}
	if i := strings.LastIndexByte(ct, '/'); i >= 0 {
		ct = ct[i+1:]
	}
	var b strings.Builder
	for _, r := range ct {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "raw"
	}
	return b.String()
}

// SelectMedia picks the media kind used to decode a response: preference
// when one of the content types maps to it, else the first content type.
func SelectMedia(contentTypes []string, preference string) string {
	if len(contentTypes) == 0 {
		contentTypes = []string{DefaultContentType}
	}
	if preference != "" {
		for _, ct := range contentTypes {
			if MediaKind(ct) == preference {
				return preference
			}
		}
	}
	return MediaKind(contentTypes[0])
}

type strategy int

const (
	unsupportedStrategy strategy = iota
	jsonStrategy
	formStrategy
)

func strategyFor(media string) strategy {
	switch media {
	case MediaJSON:
		return jsonStrategy
	case MediaForm:
		return formStrategy
	}
	return unsupportedStrategy
}

func contentTypesOrDefault(cts []string) []string {
	if len(cts) == 0 {
		return []string{DefaultContentType}
	}
	return cts
}
