package identity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	janeVanity = "https://www.linkedin.com/in/jane-doe"
	janeOpaque = "https://www.linkedin.com/in/ACoAAB1234567890"
)

func TestUpsertCreatesRecord(t *testing.T) {
	s := NewStore()

	out, err := s.Upsert(Sighting{Key: "jane-doe", URL: janeVanity, Category: Reactor, Name: "Jane Doe", Headline: "Engineer"})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.True(t, out.Added)
	assert.Equal(t, "jane-doe", out.Key)

	p, ok := s.Get("jane-doe")
	require.True(t, ok)
	assert.Equal(t, janeVanity, p.URL)
	assert.True(t, p.Categories.Has(Reactor))
	assert.Equal(t, "Engineer", p.Headline)
	assert.Equal(t, 1, s.Count(Reactor))
}

func TestUpsertIdempotent(t *testing.T) {
	s := NewStore()
	sg := Sighting{Key: "jane-doe", URL: janeVanity, Category: Commenter, Name: "Jane Doe", Degree: "2nd"}

	_, err := s.Upsert(sg)
	require.NoError(t, err)
	snapshot := s.People()

	out, err := s.Upsert(sg)
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.False(t, out.Added)
	assert.False(t, out.Merged)
	assert.Equal(t, snapshot, s.People())
}

func TestUpsertRejectsInvalid(t *testing.T) {
	s := NewStore()

	_, err := s.Upsert(Sighting{URL: janeVanity, Category: Reactor})
	assert.ErrorIs(t, err, ErrInvalidSighting)

	_, err = s.Upsert(Sighting{Key: "k", Category: Reactor})
	assert.ErrorIs(t, err, ErrInvalidSighting)

	_, err = s.Upsert(Sighting{Key: "k", URL: janeVanity})
	assert.ErrorIs(t, err, ErrInvalidSighting)
	assert.Zero(t, s.Len())
}

func TestUpsertURLRedirect(t *testing.T) {
	s := NewStore()

	_, err := s.Upsert(Sighting{Key: "ACoAAB1234567890", URL: janeVanity, Category: Reactor})
	require.NoError(t, err)

	out, err := s.Upsert(Sighting{Key: "jane-doe", URL: janeVanity, Category: Commenter})
	require.NoError(t, err)
	assert.True(t, out.Redirected)
	assert.False(t, out.Created)
	assert.Equal(t, "ACoAAB1234567890", out.Key)
	assert.Equal(t, 1, s.Len())

	p, _ := s.Get("ACoAAB1234567890")
	assert.Equal(t, Categories(Reactor|Commenter), p.Categories)
}

func TestUpsertBackfillKeepsFirstValue(t *testing.T) {
	s := NewStore()

	_, err := s.Upsert(Sighting{Key: "k", URL: janeVanity, Category: Reactor, Name: "Jane Doe"})
	require.NoError(t, err)
	_, err = s.Upsert(Sighting{Key: "k", URL: janeVanity, Category: Reactor, Name: "Other", Headline: "CTO", Degree: "1st"})
	require.NoError(t, err)

	p, _ := s.Get("k")
	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, "CTO", p.Headline)
	assert.Equal(t, "1st", p.Degree)
}

func TestUpsertUpgradesURL(t *testing.T) {
	s := NewStore()

	_, err := s.Upsert(Sighting{Key: "ACoAAB1234567890", URL: janeOpaque, Category: Reactor})
	require.NoError(t, err)
	_, err = s.Upsert(Sighting{Key: "ACoAAB1234567890", URL: janeVanity, Category: Reactor})
	require.NoError(t, err)

	p, _ := s.Get("ACoAAB1234567890")
	assert.Equal(t, janeVanity, p.URL)

	owner, ok := s.OwnerOf(janeOpaque)
	require.True(t, ok)
	assert.Equal(t, "ACoAAB1234567890", owner)
}

func TestUpsertFingerprintMerge(t *testing.T) {
	s := NewStore()

	_, err := s.Upsert(Sighting{Key: "ACoAAB1234567890", URL: janeOpaque, Category: Reactor, Name: "JOSÉ Pérez"})
	require.NoError(t, err)

	out, err := s.Upsert(Sighting{Key: "jose-perez", URL: "https://www.linkedin.com/in/jose-perez", Category: Commenter, Name: "jose   perez", Headline: "Founder"})
	require.NoError(t, err)
	assert.True(t, out.Merged)
	assert.False(t, out.Created)
	assert.Equal(t, "jose-perez", out.Key, "human-chosen url wins")
	assert.Equal(t, 1, s.Len())

	p, ok := s.Get("jose-perez")
	require.True(t, ok)
	assert.Equal(t, Categories(Reactor|Commenter), p.Categories)
	assert.Equal(t, "https://www.linkedin.com/in/jose-perez", p.URL)
	assert.Equal(t, "Founder", p.Headline)

	owner, ok := s.OwnerOf(janeOpaque)
	require.True(t, ok)
	assert.Equal(t, "jose-perez", owner)
}

func TestUpsertMergeTieBreakIsOrderIndependent(t *testing.T) {
	a := Sighting{Key: "b-key", URL: "https://www.linkedin.com/in/b-key", Category: Reactor, Name: "Sam Lee"}
	b := Sighting{Key: "a-key", URL: "https://www.linkedin.com/in/a-key", Category: Reposter, Name: "sam lee"}

	s1 := NewStore()
	_, _ = s1.Upsert(a)
	_, _ = s1.Upsert(b)

	s2 := NewStore()
	_, _ = s2.Upsert(b)
	_, _ = s2.Upsert(a)

	assert.Equal(t, s1.People(), s2.People())
	require.Len(t, s1.People(), 1)
	assert.Equal(t, "a-key", s1.People()[0].Key)
}

func TestUpsertMergeDecrementsSharedCategory(t *testing.T) {
	s := NewStore()

	_, _ = s.Upsert(Sighting{Key: "one", URL: "https://www.linkedin.com/in/one", Category: Reactor, Name: "Ana Ruiz"})
	_, _ = s.Upsert(Sighting{Key: "two", URL: "https://www.linkedin.com/in/two", Category: Reactor})
	assert.Equal(t, 2, s.Count(Reactor))

	_, err := s.Upsert(Sighting{Key: "two", URL: "https://www.linkedin.com/in/two", Category: Reactor, Name: "ana ruiz"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count(Reactor))
	assert.Equal(t, 1, s.Len())
}

func TestUpsertCapacity(t *testing.T) {
	s := NewStore(WithLimit(3))

	for i := 0; i < 3; i++ {
		_, err := s.Upsert(Sighting{
			Key:      fmt.Sprintf("p%d", i),
			URL:      fmt.Sprintf("https://www.linkedin.com/in/p%d", i),
			Category: Reactor,
		})
		require.NoError(t, err)
	}
	assert.True(t, s.Full())

	_, err := s.Upsert(Sighting{Key: "p9", URL: "https://www.linkedin.com/in/p9", Category: Reactor})
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, 3, s.Len())

	out, err := s.Upsert(Sighting{Key: "p1", URL: "https://www.linkedin.com/in/p1", Category: Commenter})
	require.NoError(t, err, "updates still accepted at capacity")
	assert.True(t, out.Added)
}

func TestUpsertAtCapacityFoldsKnownName(t *testing.T) {
	s := NewStore(WithLimit(2))
	_, err := s.Upsert(Sighting{Key: "ada-lovelace", URL: "https://www.linkedin.com/in/ada-lovelace", Category: Reactor, Name: "Ada Lovelace"})
	require.NoError(t, err)
	_, err = s.Upsert(Sighting{Key: "bob-stone", URL: "https://www.linkedin.com/in/bob-stone", Category: Reactor, Name: "Bob Stone"})
	require.NoError(t, err)
	require.True(t, s.Full())

	out, err := s.Upsert(Sighting{
		Key:      "ACoAAA1bcdefghijk",
		URL:      "https://www.linkedin.com/in/ACoAAA1bcdefghijk",
		Category: Commenter,
		Name:     "Ada  Lovelace",
	})
	require.NoError(t, err, "a known name folds into its record even when full")
	assert.True(t, out.Merged)
	assert.False(t, out.Created)
	assert.Equal(t, "ada-lovelace", out.Key)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, Stats{Reactors: 2, Commenters: 1}, s.Stats())

	ada, ok := s.Get("ada-lovelace")
	require.True(t, ok)
	assert.Equal(t, "https://www.linkedin.com/in/ada-lovelace", ada.URL)
	assert.Equal(t, Categories(Reactor|Commenter), ada.Categories)

	_, err = s.Upsert(Sighting{Key: "cy", URL: "https://www.linkedin.com/in/cy", Category: Commenter, Name: "Cy Young"})
	assert.ErrorIs(t, err, ErrCapacity, "an unknown name is still refused")
}

func TestPeopleSortedByKey(t *testing.T) {
	s := NewStore()
	for _, k := range []string{"zed", "amy", "kim"} {
		_, err := s.Upsert(Sighting{Key: k, URL: "https://www.linkedin.com/in/" + k, Category: Reactor})
		require.NoError(t, err)
	}

	people := s.People()
	require.Len(t, people, 3)
	assert.Equal(t, "amy", people[0].Key)
	assert.Equal(t, "kim", people[1].Key)
	assert.Equal(t, "zed", people[2].Key)
	assert.Equal(t, Stats{Reactors: 3}, s.Stats())
}
