package eftparser

import (
	"strings"

	"bcgov/pay-reconciler/internal/models"
)

// Patterns configures how transaction descriptions are turned into short
// name keys. Wire and EFT entries are prefixes, Ignore entries must match a
// whole leading word and Generate entries are markers found anywhere.
type Patterns struct {
	EFT      []string
	Wire     []string
	Generate []string
	Ignore   []string
}

// Classification is the outcome of reading a transaction description.
type Classification struct {
	// Key is the payer identifier used to find the short name.
	Key string
	// Type is empty when the transaction is ignored.
	Type models.ShortNameType
	// Generate marks a known payer that gets a system assigned short name.
	Generate bool
}

// Ignored reports whether the transaction is not reconciled at all.
func (c Classification) Ignored() bool {
	return c.Type == ""
}

// Classifier applies Patterns to transaction descriptions.
type Classifier struct {
	patterns Patterns
}

// NewClassifier creates a Classifier for the given patterns.
func NewClassifier(p Patterns) *Classifier {
	return &Classifier{patterns: p}
}

// Classify derives the short name key and type from a description. Wire
// prefixes win over EFT prefixes; a description matching neither is an
// unregistered EFT payer keyed by its full text.
func (c *Classifier) Classify(description string) Classification {
	description = strings.TrimSpace(description)
	if description == "" {
		return Classification{}
	}

	if p := matchPrefix(c.patterns.Wire, description); p != "" {
		return Classification{Key: strings.TrimSpace(description[len(p):]), Type: models.ShortNameTypeWire}
	}
	if p := matchPrefix(c.patterns.EFT, description); p != "" {
		return Classification{Key: strings.TrimSpace(description[len(p):]), Type: models.ShortNameTypeEFT}
	}
	for _, marker := range c.patterns.Generate {
		if marker != "" && strings.Contains(description, marker) {
			return Classification{Key: description, Type: models.ShortNameTypeEFT, Generate: true}
		}
	}
	for _, p := range c.patterns.Ignore {
		if p != "" && (description == p || strings.HasPrefix(description, p+" ")) {
			return Classification{Key: description}
		}
	}
	return Classification{Key: description, Type: models.ShortNameTypeEFT}
}

func matchPrefix(patterns []string, value string) string {
	for _, p := range patterns {
		if p != "" && strings.HasPrefix(value, p) {
			return p
		}
	}
	return ""
}
