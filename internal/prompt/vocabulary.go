package prompt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
	apperrors "github.com/ZanzyTHEbar/creative-o-meter/internal/errors"
)

// DefaultThreshold is the synergy score at which a twist is appended
const DefaultThreshold = 3.5

// Vocabulary maps each attribute name to its ordered phrase bucket
type Vocabulary map[string][]string

var defaultVocabulary = Vocabulary{
	creativity.Subject: {
		"a professional model with perfect lighting",
		"a luxury product on a minimalist background",
		"a person using a cutting-edge device",
		"a fashion accessory styled for maximum appeal",
		"a modern interior with product placement",
		"a portrait with cinematic lighting",
	},
	creativity.Style: {
		"high-end commercial photography",
		"minimalist product showcase",
		"lifestyle advertising photography",
		"glossy magazine editorial",
		"clean product photography",
		"cinematic advertising",
	},
	creativity.Mood: {
		"aspirational and elegant",
		"modern and sophisticated",
		"bright and optimistic",
		"professional and sleek",
		"warm and inviting",
		"dramatic and impactful",
	},
	creativity.Detail: {
		"extreme detail in textures and surfaces",
		"perfect depth of field highlighting key features",
		"subtle environmental reflections",
		"precise focus on product details",
		"balanced composition with rule of thirds",
		"shallow depth of field for subject emphasis",
	},
	creativity.Context: {
		"in an upscale urban setting",
		"against a gradient studio background",
		"in natural daylight streaming through windows",
		"with carefully positioned accent lighting",
		"in a lifestyle context showing practical use",
		"with complementary color palette enhancing the subject",
	},
}

var defaultTwists = []string{
	", with unique perspective that challenges conventional framing",
	", incorporating subtle visual metaphors that enhance brand messaging",
	", featuring unexpected color harmonies that draw attention",
	", with strategic negative space creating visual impact",
	", utilizing reflective surfaces to create depth and dimension",
	", with dynamic motion blur suggesting action and energy",
	", incorporating precise symmetry for maximum aesthetic appeal",
	", with atmospheric elements creating mood and context",
}

// DefaultVocabulary returns a copy of the built-in advertising phrase buckets
func DefaultVocabulary() Vocabulary {
	out := make(Vocabulary, len(defaultVocabulary))
	for k, phrases := range defaultVocabulary {
		out[k] = append([]string(nil), phrases...)
	}
	return out
}

// DefaultTwists returns a copy of the built-in twist phrases
func DefaultTwists() []string {
	return append([]string(nil), defaultTwists...)
}

// Validate checks that every attribute has a non-empty bucket
func (v Vocabulary) Validate() error {
	for _, key := range creativity.AttributeNames {
		phrases, ok := v[key]
		if !ok {
			return apperrors.NewInvalidVocabularyError(key, "missing phrase list")
		}
		if len(phrases) == 0 {
			return apperrors.NewInvalidVocabularyError(key, "empty phrase list")
		}
	}
	return nil
}

// VocabularyFile is the on-disk YAML layout
//
//	phrases:
//	  subject: ["...", "..."]
//	  ...
//	twists: ["...", "..."]
type VocabularyFile struct {
	Phrases Vocabulary `yaml:"phrases"`
	Twists  []string   `yaml:"twists"`
}

// ParseVocabulary decodes and validates a YAML vocabulary. A document
// without twists keeps the built-in ones
func ParseVocabulary(data []byte) (Vocabulary, []string, error) {
	var file VocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, apperrors.NewValidationError("Malformed vocabulary file", err.Error())
	}
	if err := file.Phrases.Validate(); err != nil {
		return nil, nil, err
	}

	twists := file.Twists
	if twists == nil {
		twists = DefaultTwists()
	}
	return file.Phrases, twists, nil
}

// LoadVocabularyFile reads a YAML vocabulary from path
func LoadVocabularyFile(path string) (Vocabulary, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, apperrors.NewConfigurationError(fmt.Sprintf("cannot read vocabulary file %s", path), err)
	}
	return ParseVocabulary(data)
}
