package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/store"
	"github.com/inkwell-blog/inkwell-server/internal/store/sqlite"
	"github.com/inkwell-blog/inkwell-server/internal/store/storetest"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "inkwell.db"), nil)
	require.NoError(t, err)
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, openTestStore)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.db")

	s, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	user := storetest.NewUser("persist", "persist@example.com")
	require.NoError(t, s.CreateUser(t.Context(), user))
	require.NoError(t, s.Close())

	// Schema creation is idempotent and data survives.
	s, err = sqlite.Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "persist", got.Username)
}
