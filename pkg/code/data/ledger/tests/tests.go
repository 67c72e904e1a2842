package tests

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-config-program/pkg/code/data/ledger"
)

func RunTests(t *testing.T, s ledger.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s ledger.Store){
		testRoundTrip,
		testVersioning,
		testAtomicBatch,
		testGetAllByOwner,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s ledger.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		address := newKey(t)
		owner := newKey(t)

		_, err := s.Get(ctx, address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		expected := &ledger.Record{
			Address:    address,
			Owner:      owner,
			Lamports:   1_000_000,
			Data:       []byte{1, 2, 3, 4},
			Executable: false,
		}
		cloned := expected.Clone()

		require.NoError(t, s.Save(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.EqualValues(t, 1, expected.Version)
		assert.False(t, expected.LastUpdatedAt.IsZero())

		actual, err := s.Get(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, expected.Id, actual.Id)
		assert.Equal(t, cloned.Address, actual.Address)
		assert.Equal(t, cloned.Owner, actual.Owner)
		assert.Equal(t, cloned.Lamports, actual.Lamports)
		assert.Equal(t, cloned.Data, actual.Data)
		assert.Equal(t, cloned.Executable, actual.Executable)
		assert.EqualValues(t, 1, actual.Version)

		actual.Data[0] = 99
		again, err := s.Get(ctx, address)
		require.NoError(t, err)
		assert.EqualValues(t, 1, again.Data[0])

		assert.Error(t, s.Save(ctx, &ledger.Record{Address: "invalid", Owner: owner}))
		assert.Error(t, s.Save(ctx, &ledger.Record{Address: address}))
	})
}

func testVersioning(t *testing.T, s ledger.Store) {
	t.Run("testVersioning", func(t *testing.T) {
		ctx := context.Background()

		record := &ledger.Record{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 10,
		}
		require.NoError(t, s.Save(ctx, record))

		stale := record.Clone()

		record.Lamports = 20
		record.Data = []byte{7}
		require.NoError(t, s.Save(ctx, record))
		assert.EqualValues(t, 2, record.Version)

		stale.Lamports = 30
		assert.Equal(t, ledger.ErrStaleVersion, s.Save(ctx, &stale))
		assert.EqualValues(t, 1, stale.Version)

		duplicate := &ledger.Record{
			Address: record.Address,
			Owner:   record.Owner,
		}
		assert.Equal(t, ledger.ErrStaleVersion, s.Save(ctx, duplicate))

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 20, actual.Lamports)
		assert.Equal(t, []byte{7}, actual.Data)
		assert.EqualValues(t, 2, actual.Version)
	})
}

func testAtomicBatch(t *testing.T, s ledger.Store) {
	t.Run("testAtomicBatch", func(t *testing.T) {
		ctx := context.Background()

		owner := newKey(t)

		existing := &ledger.Record{Address: newKey(t), Owner: owner, Lamports: 1}
		require.NoError(t, s.Save(ctx, existing))

		fresh := &ledger.Record{Address: newKey(t), Owner: owner, Lamports: 2}
		stale := existing.Clone()
		stale.Version = 0

		assert.Equal(t, ledger.ErrStaleVersion, s.Save(ctx, fresh, &stale))
		assert.EqualValues(t, 0, fresh.Version)

		_, err := s.Get(ctx, fresh.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		updated := existing.Clone()
		updated.Lamports = 5
		require.NoError(t, s.Save(ctx, fresh, &updated))

		actual, err := s.Get(ctx, fresh.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 2, actual.Lamports)

		actual, err = s.Get(ctx, existing.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 5, actual.Lamports)
		assert.EqualValues(t, 2, actual.Version)
	})
}

func testGetAllByOwner(t *testing.T, s ledger.Store) {
	t.Run("testGetAllByOwner", func(t *testing.T) {
		ctx := context.Background()

		owner := newKey(t)
		other := newKey(t)

		_, err := s.GetAllByOwner(ctx, owner)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		var expected []string
		for i := 0; i < 5; i++ {
			record := &ledger.Record{Address: newKey(t), Owner: owner}
			require.NoError(t, s.Save(ctx, record))
			expected = append(expected, record.Address)
		}
		require.NoError(t, s.Save(ctx, &ledger.Record{Address: newKey(t), Owner: other}))

		actual, err := s.GetAllByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, actual, len(expected))

		for i, record := range actual {
			assert.Equal(t, owner, record.Owner)
			assert.Contains(t, expected, record.Address)
			if i > 0 {
				assert.True(t, actual[i-1].Address < record.Address)
			}
		}
	})
}

func newKey(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub)
}
