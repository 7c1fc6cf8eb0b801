package hazard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultHazardLabels are the coastal hazard prompts scored by the zero-shot model.
var DefaultHazardLabels = []string{
	"a photo of a tsunami wave",
	"a photo of a cyclone or hurricane",
	"a photo of a storm surge",
	"a photo of high waves or swell surges",
	"a photo of a dangerous rip current",
	"a photo of the sea suddenly withdrawing",
	"a photo of an abnormally high tide",
	"a photo of an oil spill",
	"a photo of plastic waste in the ocean",
	"a photo of coastal erosion",
}

// DefaultNormalLabels compete with the hazard labels in the same softmax.
var DefaultNormalLabels = []string{
	"a photo of a calm sea",
	"a photo of a normal beach",
}

var (
	ErrNoHazardLabels = errors.New("hazard: label set has no hazard labels")
	ErrDuplicateLabel = errors.New("hazard: duplicate label")
)

// LabelSet is the immutable, ordered set of labels sent to the classifier.
// All() returns hazard labels first, then normal labels.
type LabelSet struct {
	hazard      []string
	normal      []string
	all         []string
	isHazard    map[string]bool
	fingerprint string
}

// NewLabelSet builds a label set. Labels must be unique across both lists.
func NewLabelSet(hazard, normal []string) (*LabelSet, error) {
	if len(hazard) == 0 {
		return nil, ErrNoHazardLabels
	}
	s := &LabelSet{
		hazard:   append([]string(nil), hazard...),
		normal:   append([]string(nil), normal...),
		isHazard: make(map[string]bool, len(hazard)+len(normal)),
	}
	s.all = make([]string, 0, len(hazard)+len(normal))
	for _, l := range hazard {
		if _, ok := s.isHazard[l]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, l)
		}
		s.isHazard[l] = true
		s.all = append(s.all, l)
	}
	for _, l := range normal {
		if _, ok := s.isHazard[l]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, l)
		}
		s.isHazard[l] = false
		s.all = append(s.all, l)
	}
	s.fingerprint = strconv.FormatUint(xxhash.Sum64String(strings.Join(s.all, "\x00")), 16)
	return s, nil
}

// DefaultLabelSet returns the built-in coastal hazard labels.
func DefaultLabelSet() *LabelSet {
	s, err := NewLabelSet(DefaultHazardLabels, DefaultNormalLabels)
	if err != nil {
		panic(err)
	}
	return s
}

// All returns every label in classifier order.
func (s *LabelSet) All() []string {
	return append([]string(nil), s.all...)
}

// Hazard returns the hazard labels.
func (s *LabelSet) Hazard() []string {
	return append([]string(nil), s.hazard...)
}

// Normal returns the normal labels.
func (s *LabelSet) Normal() []string {
	return append([]string(nil), s.normal...)
}

// IsHazard reports whether label belongs to the hazard subset.
func (s *LabelSet) IsHazard(label string) bool {
	return s.isHazard[label]
}

// Len returns the number of labels.
func (s *LabelSet) Len() int {
	return len(s.all)
}

// Fingerprint identifies the ordered label list. Cached results are keyed by it.
func (s *LabelSet) Fingerprint() string {
	return s.fingerprint
}
