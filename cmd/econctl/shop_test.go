package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/econsim/internal/persistence"
	"github.com/talgya/econsim/internal/shop"
)

func openDB(t *testing.T) *persistence.DB {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "shops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func savedShop(t *testing.T, db *persistence.DB, name string) *shop.Shop {
	t.Helper()
	shops, err := db.LoadShops()
	require.NoError(t, err)
	for _, s := range shops {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("shop %s not saved", name)
	return nil
}

func TestRunShop_Lifecycle(t *testing.T) {
	db := openDB(t)
	alice, bob := uuid.New(), uuid.New()
	var out bytes.Buffer

	run := func(args ...string) error {
		return runShop(db, args, &out)
	}

	require.NoError(t, run("add", "smith", alice.String(), "The", "Forge"))
	s := savedShop(t, db, "smith")
	assert.Equal(t, "The Forge", s.DisplayName)
	assert.Equal(t, []uuid.UUID{alice}, s.Owners)

	assert.ErrorIs(t, run("add", "smith", bob.String()), shop.ErrShopExists)

	require.NoError(t, run("rename", "smith", "Anvils"))
	require.NoError(t, run("owner", "add", "smith", bob.String()))
	require.NoError(t, run("rows", "smith", "2"))
	require.NoError(t, run("list", "smith", "diamond", "3"))
	require.NoError(t, run("list", "smith", "wool"))

	s = savedShop(t, db, "smith")
	assert.Equal(t, "Anvils", s.DisplayName)
	assert.True(t, s.IsOwner(bob))
	assert.Equal(t, 2*shop.SlotsPerRow, s.Slots())
	listed := s.Listed()
	require.Len(t, listed, 2)
	assert.Equal(t, "diamond", listed[0].Good.Kind)
	assert.Equal(t, 3, listed[0].Good.Count)
	assert.Equal(t, 1, listed[1].Good.Count)

	require.NoError(t, run("unlist", "smith", "0"))
	assert.ErrorIs(t, run("unlist", "smith", "0"), shop.ErrInvalidSlot)
	assert.Len(t, savedShop(t, db, "smith").Listed(), 1)

	require.NoError(t, run("remove", "smith"))
	shops, err := db.LoadShops()
	require.NoError(t, err)
	assert.Empty(t, shops)
	assert.Contains(t, out.String(), "Created shop smith (The Forge)")
}

func TestRunShop_LastOwner(t *testing.T) {
	db := openDB(t)
	owner := uuid.New()
	var out bytes.Buffer

	require.NoError(t, runShop(db, []string{"add", "bakery", owner.String()}, &out))

	err := runShop(db, []string{"owner", "remove", "bakery", owner.String()}, &out)
	assert.ErrorIs(t, err, shop.ErrLastOwner)
	assert.True(t, savedShop(t, db, "bakery").IsOwner(owner), "a rejected edit is not saved")

	require.NoError(t, runShop(db, []string{"owner", "remove", "-admin", "bakery", owner.String()}, &out))
	assert.Empty(t, savedShop(t, db, "bakery").Owners)
}

func TestRunShop_BadArguments(t *testing.T) {
	db := openDB(t)
	var out bytes.Buffer

	for _, args := range [][]string{
		nil,
		{"explode"},
		{"add", "smith"},
		{"owner", "transfer", "smith", uuid.NewString()},
		{"list", "smith"},
	} {
		assert.ErrorIs(t, runShop(db, args, &out), errUsage, "%v", args)
	}

	assert.ErrorIs(t, runShop(db, []string{"rename", "ghost", "x"}, &out), shop.ErrShopNotFound)
	assert.Error(t, runShop(db, []string{"add", "smith", "not-a-uuid"}, &out))
}
