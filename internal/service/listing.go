package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"folio/internal/domain"
)

// ListScope selecciona el conjunto a listar: los proyectos de un dueno (incluidos los privados)
// o, con OwnerID vacio, la galeria publica.
type ListScope struct {
	OwnerID string
}

func (s ListScope) Public() bool {
	return strings.TrimSpace(s.OwnerID) == ""
}

func (s ListScope) key() string {
	if s.Public() {
		return "public"
	}
	return "owner:" + strings.TrimSpace(s.OwnerID)
}

// InScope indica si el proyecto pertenece al alcance.
func (s ListScope) InScope(p domain.Project) bool {
	if s.Public() {
		return p.IsPublic
	}
	return p.UserID == strings.TrimSpace(s.OwnerID)
}

// projectLess es un orden total: DisplayOrder ascendente, CreatedAt descendente y por ultimo ID.
func projectLess(a, b domain.Project) bool {
	if a.DisplayOrder != b.DisplayOrder {
		return a.DisplayOrder < b.DisplayOrder
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortProjects devuelve una copia ordenada para mostrar.
func SortProjects(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, len(projects))
	copy(out, projects)
	sort.SliceStable(out, func(i, j int) bool {
		return projectLess(out[i], out[j])
	})
	return out
}

// ProjectFilter son los filtros de la galeria; los campos vacios no filtran.
type ProjectFilter struct {
	Category     string
	Tag          string
	Search       string
	FeaturedOnly bool
}

// FilterProjects aplica el filtro conservando el orden de entrada.
func FilterProjects(projects []domain.Project, f ProjectFilter) []domain.Project {
	category := strings.TrimSpace(f.Category)
	tag := strings.TrimSpace(f.Tag)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if f.FeaturedOnly && !p.Featured {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if tag != "" && !containsFold(p.Tags, tag) {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func matchesSearch(p domain.Project, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	for _, group := range [][]string{p.Tags, p.TechStack} {
		for _, v := range group {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
	}
	return false
}

const (
	DefaultListingTTL        = 30 * time.Second
	DefaultListingMaxEntries = 1024
)

type listingEntry struct {
	projects []domain.Project
	stored   time.Time
}

// ListingCache guarda el ultimo listado por alcance. Las entradas se reemplazan completas, nunca se mutan.
// Una entrada vence a los ttl; con maxEntries ocupadas se descartan primero las vencidas y luego la mas vieja.
type ListingCache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]listingEntry
}

func NewListingCache(ttl time.Duration, maxEntries int) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultListingMaxEntries
	}
	return &ListingCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]listingEntry),
	}
}

func (c *ListingCache) Get(scope ListScope) ([]domain.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[scope.key()]
	if !ok || c.expired(entry) {
		return nil, false
	}
	out := make([]domain.Project, len(entry.projects))
	copy(out, entry.projects)
	return out, true
}

func (c *ListingCache) Put(scope ListScope, projects []domain.Project) {
	snapshot := make([]domain.Project, len(projects))
	copy(snapshot, projects)
	c.mu.Lock()
	defer c.mu.Unlock()
	key := scope.key()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evict()
	}
	c.entries[key] = listingEntry{projects: snapshot, stored: c.now()}
}

// Remove quita el proyecto de todos los listados guardados sin cambiar su vencimiento.
func (c *ListingCache) Remove(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		next := make([]domain.Project, 0, len(entry.projects))
		for _, p := range entry.projects {
			if p.ID != projectID {
				next = append(next, p)
			}
		}
		c.entries[key] = listingEntry{projects: next, stored: entry.stored}
	}
}

// Invalidate descarta el listado del alcance.
func (c *ListingCache) Invalidate(scope ListScope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, scope.key())
}

func (c *ListingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ListingCache) expired(entry listingEntry) bool {
	return c.now().Sub(entry.stored) >= c.ttl
}

// evict se llama con mu tomado.
func (c *ListingCache) evict() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			continue
		}
		if oldestKey == "" || entry.stored.Before(oldest) {
			oldestKey, oldest = key, entry.stored
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
