package response

import (
	"fmt"
	"regexp"
)

// Kind is the semantic classification of a Value used for rendering.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindImage
	KindScalar
	KindEmptyList
	KindImageList
	KindScalarList
	KindNested
)

var kindNames = map[Kind]string{
	KindNull:       "null",
	KindBool:       "bool",
	KindImage:      "image",
	KindScalar:     "scalar",
	KindEmptyList:  "empty-list",
	KindImageList:  "image-list",
	KindScalarList: "scalar-list",
	KindNested:     "nested",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	dataURIImagePattern   = regexp.MustCompile(`^data:image`)
	imageExtensionPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)
)

// IsImageString reports whether s looks like an image reference: a data URI
// image or a path ending in a common image extension.
func IsImageString(s string) bool {
	return dataURIImagePattern.MatchString(s) || imageExtensionPattern.MatchString(s)
}

// Classify returns the semantic kind of v. Rules are checked in order and the
// first match wins. An array is classified by its first element only, so a
// mixed array that starts with an image is an image list.
func Classify(v Value) Kind {
	switch v.typ {
	case TypeNull:
		return KindNull
	case TypeBool:
		return KindBool
	case TypeString:
		if IsImageString(v.text) {
			return KindImage
		}
		return KindScalar
	case TypeNumber:
		return KindScalar
	case TypeArray:
		if len(v.items) == 0 {
			return KindEmptyList
		}
		first := v.items[0]
		if first.typ == TypeString && IsImageString(first.text) {
			return KindImageList
		}
		return KindScalarList
	case TypeObject:
		return KindNested
	default:
		return KindScalar
	}
}
