package patch

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Variant is the closed set of source flavours a definition may target.
type Variant string

const (
	// Default is used by definitions that do not depend on a language,
	// such as Gradle files and the Podfile.
	Default      Variant = "default"
	Java         Variant = "java"
	Kotlin       Variant = "kotlin"
	Swift        Variant = "swift"
	ObjectiveC   Variant = "objc"
	Swift5x      Variant = "swift5x"
	ObjectiveC5x Variant = "objc5x"
)

var variants = []Variant{Default, Java, Kotlin, Swift, ObjectiveC, Swift5x, ObjectiveC5x}

// Variants returns every known variant.
func Variants() []Variant {
	return append([]Variant(nil), variants...)
}

func (v Variant) valid() bool {
	for _, known := range variants {
		if v == known {
			return true
		}
	}
	return false
}

// Legacy reports whether v targets the 5.x iOS SDK.
func (v Variant) Legacy() bool {
	return v == Swift5x || v == ObjectiveC5x
}

// VariantForFile picks the variant for a source file from its extension.
// legacy selects the 5.x flavours for iOS sources.
func VariantForFile(path string, legacy bool) (Variant, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".java":
		return Java, nil
	case ".kt":
		return Kotlin, nil
	case ".swift":
		if legacy {
			return Swift5x, nil
		}
		return Swift, nil
	case ".m", ".mm":
		if legacy {
			return ObjectiveC5x, nil
		}
		return ObjectiveC, nil
	default:
		return "", fmt.Errorf("no patch variant for %s", filepath.Base(path))
	}
}
