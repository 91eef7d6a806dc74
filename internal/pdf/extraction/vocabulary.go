package extraction

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical field names of the reference meeting notice vocabulary
const (
	FieldMeetingDate                 = "Meeting Date"
	FieldRecordDateForNotice         = "Record Date for Notice"
	FieldRecordDateForVoting         = "Record Date for Voting"
	FieldBeneficialOwnershipDate     = "Beneficial Ownership Determination Date"
	FieldSecuritiesEntitledToNotice  = "Securities entitled to Notice"
	FieldSecuritiesEntitledToVote    = "Securities entitled to Vote"
	FieldMeetingType                 = "Meeting Type"
	FieldDirectSendingToNOBOs        = "Direct sending of proxy-related materials to NOBOs by issuer"
	FieldIssuerPaysForOBOs           = "Issuer to pay for sending proxy-related materials to OBOs by proximate intermediary"
	FieldNoticeAndAccess             = "Notice and Access"
	issuerPaysForOBOsLineBrokenLabel = "Issuer to pay for sending proxy-related materials to OBOs\nby proximate intermediary"
)

// Field is a canonical output field and the raw key texts that refer to it
type Field struct {
	Name     string   `json:"name"`
	Variants []string `json:"variants,omitempty"`
}

// Conflict records a variant that normalizes to a form already claimed by an
// earlier field. The earlier field keeps it.
type Conflict struct {
	Variant  string
	Kept     string
	Rejected string
}

// Vocabulary is an immutable, ordered set of canonical fields.
// Field order defines the order of extraction output.
type Vocabulary struct {
	fields    []Field
	conflicts []Conflict
}

// NewVocabulary validates and copies fields into a Vocabulary
func NewVocabulary(fields ...Field) (*Vocabulary, error) {
	if len(fields) == 0 {
		return nil, errors.New("vocabulary must contain at least one field")
	}

	v := &Vocabulary{fields: make([]Field, 0, len(fields))}
	names := make(map[string]bool, len(fields))
	claimed := make(map[string]string)

	for i, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, fmt.Errorf("field %d has an empty name", i)
		}
		if names[name] {
			return nil, fmt.Errorf("duplicate field name: %s", name)
		}
		names[name] = true

		variants := make([]string, 0, len(f.Variants))
		for _, variant := range f.Variants {
			if NormalizeVariant(variant) == "" {
				return nil, fmt.Errorf("field %s has a blank variant", name)
			}
			variants = append(variants, variant)
		}

		for _, variant := range append([]string{name}, variants...) {
			key := NormalizeVariant(variant)
			if owner, ok := claimed[key]; ok {
				if owner != name {
					v.conflicts = append(v.conflicts, Conflict{Variant: variant, Kept: owner, Rejected: name})
				}
				continue
			}
			claimed[key] = name
		}

		v.fields = append(v.fields, Field{Name: name, Variants: variants})
	}

	return v, nil
}

// MustVocabulary is NewVocabulary for statically known fields
func MustVocabulary(fields ...Field) *Vocabulary {
	v, err := NewVocabulary(fields...)
	if err != nil {
		panic(err)
	}
	return v
}

// DefaultVocabulary returns the reference meeting notice vocabulary
func DefaultVocabulary() *Vocabulary {
	return MustVocabulary(
		Field{Name: FieldMeetingDate},
		Field{Name: FieldRecordDateForNotice},
		Field{Name: FieldRecordDateForVoting},
		Field{Name: FieldBeneficialOwnershipDate},
		Field{Name: FieldSecuritiesEntitledToNotice},
		Field{Name: FieldSecuritiesEntitledToVote},
		Field{Name: FieldMeetingType},
		Field{Name: FieldDirectSendingToNOBOs},
		Field{Name: FieldIssuerPaysForOBOs, Variants: []string{issuerPaysForOBOsLineBrokenLabel}},
		Field{Name: FieldNoticeAndAccess},
	)
}

// FieldNames returns the canonical names in output order
func (v *Vocabulary) FieldNames() []string {
	names := make([]string, len(v.fields))
	for i, f := range v.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the vocabulary's fields
func (v *Vocabulary) Fields() []Field {
	out := make([]Field, len(v.fields))
	for i, f := range v.fields {
		out[i] = Field{Name: f.Name, Variants: append([]string(nil), f.Variants...)}
	}
	return out
}

// Len returns the number of canonical fields
func (v *Vocabulary) Len() int {
	return len(v.fields)
}

// Conflicts returns variants that were shadowed by an earlier field
func (v *Vocabulary) Conflicts() []Conflict {
	return append([]Conflict(nil), v.conflicts...)
}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NormalizeVariant folds a configured key variant to its lookup form:
// newlines become spaces, surrounding whitespace is trimmed, and the text is
// lower-cased.
func NormalizeVariant(s string) string {
	return strings.ToLower(strings.TrimSpace(newlineReplacer.Replace(s)))
}

// NormalizeDiscoveredKey folds key text found in a document. OCR often appends
// a colon to labels, so trailing colons are dropped before NormalizeVariant.
func NormalizeDiscoveredKey(s string) string {
	return NormalizeVariant(strings.TrimRight(strings.TrimSpace(s), ":"))
}

// Matcher resolves discovered key text to canonical field names.
// A Matcher is built per extraction pass.
type Matcher struct {
	lookup map[string]string
}

// NewMatcher builds the normalized lookup for a vocabulary. Each field's name
// is registered before its variants; the first registration of a normalized
// form wins.
func NewMatcher(v *Vocabulary) *Matcher {
	m := &Matcher{lookup: make(map[string]string)}
	for _, f := range v.fields {
		m.register(f.Name, f.Name)
		for _, variant := range f.Variants {
			m.register(variant, f.Name)
		}
	}
	return m
}

func (m *Matcher) register(variant, canonical string) {
	key := NormalizeVariant(variant)
	if _, exists := m.lookup[key]; exists {
		return
	}
	m.lookup[key] = canonical
}

// Match returns the canonical field for raw key text, if it is tracked
func (m *Matcher) Match(rawKey string) (string, bool) {
	canonical, ok := m.lookup[NormalizeDiscoveredKey(rawKey)]
	return canonical, ok
}
