package contacts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/dioxane/internal/identity"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSaveAndAll(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Save(identity.New("Cysalia", []byte{0xa1, 0x56}, nil)))
	require.NoError(t, s.Save(identity.New("Baophes", []byte{0x96, 0x4d}, []byte{0xbe, 0xef})))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cysalia", all[0].Name)
	assert.Nil(t, all[0].Key)
	assert.Equal(t, "Baophes", all[1].Name)
	assert.Equal(t, []byte{0xbe, 0xef}, all[1].Key)
}

func TestSaveUpdateKeepsOrder(t *testing.T) {
	s, _ := newTestStore(t)
	first := identity.FromKeyID([]byte{0x01})
	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(identity.FromKeyID([]byte{0x02})))

	first.Name = "One"
	require.NoError(t, s.Save(first))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "One", all[0].Name)
	assert.Equal(t, "0x02", all[1].Name)
}

func TestPersistsAcrossOpen(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.Save(identity.New("Baophes", []byte{0x96, 0x4d}, nil)))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	dir := identity.NewDirectory()
	n, err := reopened.LoadInto(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := dir.Lookup("0x964d")
	require.NoError(t, err)
	assert.Equal(t, "Baophes", got.Name)
}
