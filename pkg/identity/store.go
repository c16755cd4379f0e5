package identity

import (
	"errors"
	"sort"
)

var (
	// ErrCapacity is returned when a sighting would create a record beyond
	// the store limit. Updates to existing records are still accepted.
	ErrCapacity = errors.New("identity: store is at capacity")

	// ErrInvalidSighting is returned for sightings without a key or URL.
	ErrInvalidSighting = errors.New("identity: sighting needs a key and a url")
)

// Sighting is one observation of a person in one category.
type Sighting struct {
	Key      string
	URL      string
	Category Category
	Name     string
	Headline string
	Degree   string
}

// Outcome describes what an Upsert did.
type Outcome struct {
	// Key is the live record the sighting ended up in.
	Key string
	// Created is true when the store holds one more person than before.
	Created bool
	// Added is true when the category count of the sighting grew.
	Added bool
	// Merged is true when a fingerprint merge removed a record.
	Merged bool
	// Redirected is true when URL ownership overrode the sighting key.
	Redirected bool
}

// Option configures a Store.
type Option func(*Store)

// WithLimit caps the number of records. Zero means unlimited.
func WithLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// Store maps canonical keys to person records.
type Store struct {
	people   map[string]*Person
	urlOwner map[string]string
	names    map[string]string
	counts   [3]int
	limit    int
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		people:   make(map[string]*Person),
		urlOwner: make(map[string]string),
		names:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert records a sighting, creating or updating a record and merging
// records that share a name fingerprint. Repeating an identical sighting
// is a no-op.
func (s *Store) Upsert(sg Sighting) (Outcome, error) {
	if sg.Key == "" || sg.URL == "" || sg.Category.index() < 0 {
		return Outcome{}, ErrInvalidSighting
	}

	var out Outcome
	before := s.counts[sg.Category.index()]
	size := len(s.people)

	key := sg.Key
	if owner, ok := s.urlOwner[sg.URL]; ok && owner != key {
		key = owner
		out.Redirected = true
	}

	p, ok := s.people[key]
	if !ok {
		if s.Full() && !s.knownName(sg.Name) {
			return Outcome{}, ErrCapacity
		}
		p = &Person{Key: key, URL: sg.URL}
		s.people[key] = p
	}
	s.addCategory(p, sg.Category)
	p.URL = BetterURL(p.URL, sg.URL)
	p.backfill(sg.Name, sg.Headline, sg.Degree)
	s.urlOwner[sg.URL] = key
	s.urlOwner[p.URL] = key

	if fp := Fingerprint(sg.Name); fp != "" {
		prev, seen := s.names[fp]
		switch {
		case !seen || s.people[prev] == nil:
			s.names[fp] = key
		case prev != key:
			key = s.merge(key, prev)
			out.Merged = true
		}
	}

	out.Key = key
	out.Created = len(s.people) > size
	out.Added = s.counts[sg.Category.index()] > before
	return out, nil
}

// knownName reports whether name fingerprints to a live record, in which
// case a new key folds into it instead of adding a person.
func (s *Store) knownName(name string) bool {
	fp := Fingerprint(name)
	if fp == "" {
		return false
	}
	owner, ok := s.names[fp]
	return ok && s.people[owner] != nil
}

// merge folds two live records into one and returns the keeper's key.
func (s *Store) merge(a, b string) string {
	keep, drop := s.people[a], s.people[b]
	if !prefer(keep, drop) {
		keep, drop = drop, keep
	}

	keep.URL = BetterURL(keep.URL, drop.URL)
	keep.backfill(drop.Name, drop.Headline, drop.Degree)
	for _, c := range drop.Categories.Slice() {
		s.counts[c.index()]--
		s.addCategory(keep, c)
	}
	delete(s.people, drop.Key)

	for u, owner := range s.urlOwner {
		if owner == drop.Key {
			s.urlOwner[u] = keep.Key
		}
	}
	s.urlOwner[keep.URL] = keep.Key
	for fp, owner := range s.names {
		if owner == drop.Key {
			s.names[fp] = keep.Key
		}
	}
	return keep.Key
}

// prefer reports whether a should be kept over b: a human-chosen URL first,
// then more descriptive fields, then the smaller key.
func prefer(a, b *Person) bool {
	va, vb := !IsOpaqueURL(a.URL), !IsOpaqueURL(b.URL)
	if va != vb {
		return va
	}
	if ra, rb := a.richness(), b.richness(); ra != rb {
		return ra > rb
	}
	return a.Key < b.Key
}

func (s *Store) addCategory(p *Person, c Category) {
	if p.Categories.Has(c) {
		return
	}
	p.Categories = p.Categories.With(c)
	s.counts[c.index()]++
}

// Len returns the number of live records.
func (s *Store) Len() int {
	return len(s.people)
}

// Limit returns the configured capacity, zero when unlimited.
func (s *Store) Limit() int {
	return s.limit
}

// Full reports whether no further records can be created.
func (s *Store) Full() bool {
	return s.limit > 0 && len(s.people) >= s.limit
}

// Count returns the number of records carrying category c.
func (s *Store) Count(c Category) int {
	i := c.index()
	if i < 0 {
		return 0
	}
	return s.counts[i]
}

// Get returns a copy of the record stored under key.
func (s *Store) Get(key string) (Person, bool) {
	p, ok := s.people[key]
	if !ok {
		return Person{}, false
	}
	return *p, true
}

// OwnerOf returns the key of the record that owns url.
func (s *Store) OwnerOf(url string) (string, bool) {
	key, ok := s.urlOwner[url]
	if !ok || s.people[key] == nil {
		return "", false
	}
	return key, true
}

// People returns copies of all records ordered by key.
func (s *Store) People() []Person {
	out := make([]Person, 0, len(s.people))
	for _, p := range s.people {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Stats holds the per-category record counts.
type Stats struct {
	Reactors   int `json:"reactors"`
	Commenters int `json:"commenters"`
	Reposters  int `json:"reposters"`
}

// Stats returns the current per-category counts.
func (s *Store) Stats() Stats {
	return Stats{
		Reactors:   s.Count(Reactor),
		Commenters: s.Count(Commenter),
		Reposters:  s.Count(Reposter),
	}
}
