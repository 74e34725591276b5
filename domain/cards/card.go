package cards

// SectionKind distinguishes the two section types a card can contain.
type SectionKind string

const (
	SectionEducationalQuiz SectionKind = "educational-quiz"
	SectionGuidedDiscovery SectionKind = "guided-discovery"
)

// Section is one step of a card's curriculum.
type Section struct {
	Kind  SectionKind `json:"kind" yaml:"kind"`
	Title string      `json:"title" yaml:"title"`
	Order int         `json:"order" yaml:"order"`
}

// Card is one of the seven fixed brand-strategy topics. Immutable
// reference data loaded from the content catalog.
type Card struct {
	Slug     string    `json:"slug" yaml:"slug"`
	Name     string    `json:"name" yaml:"name"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// DefaultSlug is the card unknown slugs fall back to. Malformed client
// requests degrade to the purpose conversation instead of failing.
const DefaultSlug = "purpose"

// Slugs lists the seven fixed card slugs in curriculum order.
func Slugs() []string {
	return []string{
		"purpose",
		"positioning",
		"personality",
		"product-market-fit",
		"perception",
		"presentation",
		"proof",
	}
}

// IsKnownSlug reports whether slug names one of the seven cards.
func IsKnownSlug(slug string) bool {
	for _, s := range Slugs() {
		if s == slug {
			return true
		}
	}
	return false
}

// Normalize maps any slug onto a known card slug, falling back to the
// default card.
func Normalize(slug string) string {
	if IsKnownSlug(slug) {
		return slug
	}
	return DefaultSlug
}

// Catalog provides card lookup by slug.
type Catalog interface {
	// Get returns the card for slug, falling back to the default card
	// for unknown slugs.
	Get(slug string) Card

	// All returns every card in curriculum order.
	All() []Card
}
