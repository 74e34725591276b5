// Package content loads the card catalog: the seven fixed
// brand-strategy topics and their sections. The catalog is reference
// data edited by the content team, so it lives in a YAML file and hot
// reloads on change.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"clarityos-backend/domain/cards"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML document shape.
type catalogFile struct {
	Cards []cards.Card `yaml:"cards"`
}

// Catalog is a hot-reloading cards.Catalog backed by a YAML file.
// Missing or unparseable content falls back to the built-in defaults;
// the curriculum must load even on a broken deploy.
type Catalog struct {
	mu      sync.RWMutex
	bySlug  map[string]cards.Card
	ordered []cards.Card

	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	stopCh  chan struct{}
}

// NewCatalog loads the catalog from path and starts watching it for
// changes. Close releases the watcher.
func NewCatalog(path string, logger *zap.Logger) (*Catalog, error) {
	c := &Catalog{
		path:   path,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	c.install(c.loadOrDefault())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create content watcher: %w", err)
	}
	// Watch the directory: editors replace files, which breaks
	// file-level watches.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch content directory: %w", err)
	}
	c.watcher = watcher

	go c.watch()

	return c, nil
}

// Get returns the card for slug, falling back to the default card for
// unknown slugs.
func (c *Catalog) Get(slug string) cards.Card {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if card, ok := c.bySlug[slug]; ok {
		return card
	}
	return c.bySlug[cards.DefaultSlug]
}

// All returns every card in curriculum order.
func (c *Catalog) All() []cards.Card {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]cards.Card, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Close stops the file watcher.
func (c *Catalog) Close() error {
	close(c.stopCh)
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

func (c *Catalog) watch() {
	for {
		select {
		case <-c.stopCh:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(c.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			c.install(c.loadOrDefault())
			c.logger.Info("card catalog reloaded", zap.String("path", c.path))
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("content watcher error", zap.Error(err))
		}
	}
}

func (c *Catalog) loadOrDefault() []cards.Card {
	data, err := os.ReadFile(c.path)
	if err != nil {
		c.logger.Warn("card content file unavailable, using built-in catalog",
			zap.String("path", c.path), zap.Error(err))
		return defaultCards()
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		c.logger.Warn("card content file unparseable, using built-in catalog",
			zap.String("path", c.path), zap.Error(err))
		return defaultCards()
	}

	loaded := make([]cards.Card, 0, len(file.Cards))
	for _, card := range file.Cards {
		if !cards.IsKnownSlug(card.Slug) {
			c.logger.Warn("skipping card with unknown slug", zap.String("slug", card.Slug))
			continue
		}
		loaded = append(loaded, card)
	}

	// The engine relies on the default card existing.
	if len(loaded) == 0 || !hasSlug(loaded, cards.DefaultSlug) {
		return defaultCards()
	}

	return loaded
}

func (c *Catalog) install(list []cards.Card) {
	bySlug := make(map[string]cards.Card, len(list))
	for _, card := range list {
		bySlug[card.Slug] = card
	}

	c.mu.Lock()
	c.bySlug = bySlug
	c.ordered = list
	c.mu.Unlock()
}

func hasSlug(list []cards.Card, slug string) bool {
	for _, card := range list {
		if card.Slug == slug {
			return true
		}
	}
	return false
}

// defaultCards is the built-in catalog: every card carries the quiz
// section followed by the guided-discovery section.
func defaultCards() []cards.Card {
	names := map[string]string{
		"purpose":            "Purpose",
		"positioning":        "Positioning",
		"personality":        "Personality",
		"product-market-fit": "Product-Market Fit",
		"perception":         "Perception",
		"presentation":       "Presentation",
		"proof":              "Proof",
	}

	out := make([]cards.Card, 0, len(cards.Slugs()))
	for _, slug := range cards.Slugs() {
		out = append(out, cards.Card{
			Slug: slug,
			Name: names[slug],
			Sections: []cards.Section{
				{Kind: cards.SectionEducationalQuiz, Title: "Learn", Order: 1},
				{Kind: cards.SectionGuidedDiscovery, Title: "Discover", Order: 2},
			},
		})
	}
	return out
}
