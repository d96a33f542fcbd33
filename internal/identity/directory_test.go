package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityEquality(t *testing.T) {
	a := New("Baophes", []byte{0x96, 0x4d}, nil)
	b := FromKeyID([]byte{0x96, 0x4d})
	c := New("Baophes", []byte{0x00, 0x96, 0x4d}, nil)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, "0x964d", b.Name)
	assert.Equal(t, "0x00964d", c.Hex())
}

func TestIdentityKeyIDIsCopied(t *testing.T) {
	raw := []byte{0x13, 0x12}
	id := New("Amus", raw, nil)
	raw[0] = 0xff
	assert.Equal(t, []byte{0x13, 0x12}, id.KeyID())

	out := id.KeyID()
	out[1] = 0xff
	assert.Equal(t, []byte{0x13, 0x12}, id.KeyID())
}

func TestDirectoryLookup(t *testing.T) {
	dir := NewDirectory()
	baophes := New("Baophes", []byte{0x96, 0x4d}, nil)
	cysalia := New("Cysalia", []byte{0xa1, 0x56}, nil)
	dir.Register(baophes)
	dir.Register(cysalia)

	testCases := []struct {
		query string
		want  *Identity
	}{
		{"Baophes", baophes},
		{"Cysa", cysalia},
		{"0x964d", baophes},
		{"0xA156", cysalia},
	}
	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			got, err := dir.Lookup(tc.query)
			require.NoError(t, err)
			assert.Same(t, tc.want, got)
		})
	}

	_, err := dir.Lookup("Nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = dir.Lookup("0x1234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryLookupKeyID(t *testing.T) {
	dir := NewDirectory()
	id := New("Amus", []byte{0x13, 0x12}, []byte{0x13, 0x12, 0xb0, 0x0b})
	dir.Register(id)

	got, err := dir.LookupKeyID([]byte{0x13, 0x12})
	require.NoError(t, err)
	assert.Same(t, id, got)

	_, err = dir.LookupKeyID([]byte{0x13})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryRegisterKeepsOrder(t *testing.T) {
	dir := NewDirectory()
	first := FromKeyID([]byte{0x01})
	second := FromKeyID([]byte{0x02})
	dir.Register(first)
	dir.Register(second)

	replacement := New("One", []byte{0x01}, nil)
	dir.Register(replacement)

	all := dir.All()
	require.Len(t, all, 2)
	assert.Same(t, replacement, all[0])
	assert.Same(t, second, all[1])
	assert.Equal(t, 2, dir.Len())
}

func TestDirectoryRename(t *testing.T) {
	dir := NewDirectory()
	id := FromKeyID([]byte{0xca, 0xfe})
	dir.Register(id)

	require.NoError(t, dir.Rename(id, "Cafe"))
	got, err := dir.Lookup("Cafe")
	require.NoError(t, err)
	assert.Same(t, id, got)

	assert.ErrorIs(t, dir.Rename(FromKeyID([]byte{0x01}), "x"), ErrNotFound)
}
