package folders_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"memorybook-backend/internal/folders"
	"memorybook-backend/internal/storage"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	remote := storage.NewMemory()
	resolver := folders.NewResolver(remote, "", "Ani-Defteri-Siparisler")

	first, err := resolver.GetOrCreate(ctx, "2026", "")
	require.NoError(t, err)
	second, err := resolver.GetOrCreate(ctx, "2026", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	listed, err := remote.ListFolders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestGetOrCreateAdoptsExistingFolder(t *testing.T) {
	ctx := context.Background()
	remote := storage.NewMemory()

	existing, err := remote.CreateFolder(ctx, "2026", "")
	require.NoError(t, err)

	// A fresh resolver has no cache; it must find the existing folder
	// rather than create a sibling with the same name.
	resolver := folders.NewResolver(remote, "", "root")
	id, err := resolver.GetOrCreate(ctx, "2026", "")
	require.NoError(t, err)
	assert.Equal(t, existing, id)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	remote := storage.NewMemory()
	resolver := folders.NewResolver(remote, "", "root")

	const callers = 16
	ids := make([]string, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := resolver.GetOrCreate(ctx, "02", "fld_parent")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}

	listed, err := remote.ListFolders(ctx, "fld_parent")
	require.NoError(t, err)
	assert.Len(t, listed, 1, "racing callers must not create duplicate folders")
}

// conflictRemote simulates a backend with a name-uniqueness constraint,
// like the Supabase path-keyed store.
type conflictRemote struct {
	*storage.Memory
}

func (c *conflictRemote) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	existing, err := c.Memory.ListFolders(ctx, parentID)
	if err != nil {
		return "", err
	}
	for _, f := range existing {
		if f.Name == name {
			return "", storage.ErrConflict
		}
	}
	return c.Memory.CreateFolder(ctx, name, parentID)
}

func TestGetOrCreateReconcilesOnConflict(t *testing.T) {
	ctx := context.Background()
	remote := &conflictRemote{Memory: storage.NewMemory()}

	winner := folders.NewResolver(remote, "", "root")
	winnerID, err := winner.GetOrCreate(ctx, "orders", "")
	require.NoError(t, err)

	// Second resolver stands in for another process that loses the
	// create race and must adopt the winner's folder.
	loser := folders.NewResolver(remote, "", "root")
	loserID, err := loser.GetOrCreate(ctx, "orders", "")
	require.NoError(t, err)
	assert.Equal(t, winnerID, loserID)
}

func TestCreateAlwaysMakesNewFolder(t *testing.T) {
	ctx := context.Background()
	remote := storage.NewMemory()
	resolver := folders.NewResolver(remote, "", "root")

	first, err := resolver.Create(ctx, "20260202-1534_A7B9C2__ayse-yilmaz", "fld_month")
	require.NoError(t, err)
	second, err := resolver.Create(ctx, "20260202-1534_A7B9C2__ayse-yilmaz", "fld_month")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRootPrefersConfiguredID(t *testing.T) {
	ctx := context.Background()
	remote := storage.NewMemory()

	resolver := folders.NewResolver(remote, "fld_fixed", "ignored")
	id, err := resolver.Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fld_fixed", id)

	// Nothing was created in the remote.
	listed, err := remote.ListFolders(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestResolveOrderHierarchy(t *testing.T) {
	ctx := context.Background()
	remote := storage.NewMemory()
	resolver := folders.NewResolver(remote, "", "Ani-Defteri-Siparisler")

	date := time.Date(2026, 2, 2, 15, 34, 0, 0, time.UTC)
	h, err := resolver.ResolveOrderHierarchy(ctx, date)
	require.NoError(t, err)

	years, err := remote.ListFolders(ctx, h.RootID)
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, "2026", years[0].Name)
	assert.Equal(t, h.YearID, years[0].ID)

	months, err := remote.ListFolders(ctx, h.YearID)
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.Equal(t, "02", months[0].Name)
	assert.Equal(t, h.MonthID, months[0].ID)

	// Same month resolves to the same folders.
	again, err := resolver.ResolveOrderHierarchy(ctx, date.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, h, again)
}
