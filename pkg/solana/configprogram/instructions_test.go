package configprogram

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-config-program/pkg/testutil"
)

func TestInitializeConfigInstruction(t *testing.T) {
	for _, schema := range allSchemas {
		t.Run(schema.Name, func(t *testing.T) {
			keys := testutil.GenerateSolanaKeys(t, 4)

			ix := NewInitializeConfigInstruction(
				PROGRAM_ID,
				schema,
				&InitializeConfigInstructionAccounts{
					Config: keys[0],
					Base:   keys[1],
					Admin:  keys[2],
					Server: keys[3],
				},
				&InitializeConfigInstructionArgs{
					Bump:           253,
					FeeBasisPoints: 300,
				},
			)

			assert.Equal(t, PROGRAM_ID, ix.Program)
			require.Len(t, ix.Data, 1+schema.InitializeConfigArgsSize())
			assert.EqualValues(t, InstructionTypeInitializeConfig, ix.Data[0])
			assert.EqualValues(t, 253, ix.Data[1])

			require.Len(t, ix.Accounts, schema.InitializeConfigAccountCount())
			assert.Equal(t, keys[0], ix.Accounts[0].PublicKey)
			assert.True(t, ix.Accounts[0].IsWritable)
			assert.False(t, ix.Accounts[0].IsSigner)
			assert.True(t, ix.Accounts[2].IsSigner)
			assert.True(t, ix.Accounts[2].IsWritable)
			if schema.HasServer {
				assert.Equal(t, keys[3], ix.Accounts[3].PublicKey)
			}
			n := len(ix.Accounts)
			assert.Equal(t, SYSVAR_RENT_PUBKEY, ix.Accounts[n-2].PublicKey)
			assert.Equal(t, SYSTEM_PROGRAM_ID, ix.Accounts[n-1].PublicKey)

			args, err := DecodeInitializeConfigInstructionArgs(schema, ix.Data[1:])
			require.NoError(t, err)
			assert.EqualValues(t, 253, args.Bump)
			assert.EqualValues(t, 300, args.FeeBasisPoints)

			_, err = DecodeInitializeConfigInstructionArgs(schema, ix.Data[2:])
			assert.Equal(t, ErrMalformedPayload, err)
			_, err = DecodeInitializeConfigInstructionArgs(schema, append(ix.Data[1:], 0))
			assert.Equal(t, ErrMalformedPayload, err)
		})
	}
}

func TestUpdateConfigInstruction(t *testing.T) {
	for _, schema := range allSchemas {
		t.Run(schema.Name, func(t *testing.T) {
			keys := testutil.GenerateSolanaKeys(t, 3)

			for _, tc := range []UpdateConfigInstructionArgs{
				{
					NewAdmin:          Keep[ed25519.PublicKey](),
					NewServer:         Keep[ed25519.PublicKey](),
					NewFeeBasisPoints: Keep[uint64](),
				},
				{
					NewAdmin:          SetTo(keys[2]),
					NewServer:         Keep[ed25519.PublicKey](),
					NewFeeBasisPoints: SetTo[uint64](0),
				},
				{
					NewAdmin:          Keep[ed25519.PublicKey](),
					NewServer:         SetTo(keys[1]),
					NewFeeBasisPoints: SetTo[uint64](schema.MaxFee()),
				},
			} {
				if !schema.HasServer {
					tc.NewServer = Keep[ed25519.PublicKey]()
				}

				ix := NewUpdateConfigInstruction(
					PROGRAM_ID,
					schema,
					&UpdateConfigInstructionAccounts{Config: keys[0], Admin: keys[1]},
					&tc,
				)

				require.Len(t, ix.Data, 1+schema.UpdateConfigArgsSize())
				assert.EqualValues(t, InstructionTypeUpdateConfig, ix.Data[0])

				require.Len(t, ix.Accounts, 2)
				assert.True(t, ix.Accounts[0].IsWritable)
				assert.False(t, ix.Accounts[0].IsSigner)
				assert.True(t, ix.Accounts[1].IsSigner)
				assert.False(t, ix.Accounts[1].IsWritable)

				decoded, err := DecodeUpdateConfigInstructionArgs(schema, ix.Data[1:])
				require.NoError(t, err)
				assert.Equal(t, tc.NewAdmin.IsSet(), decoded.NewAdmin.IsSet())
				assert.Equal(t, tc.NewServer.IsSet(), decoded.NewServer.IsSet())
				assert.Equal(t, tc.NewFeeBasisPoints, decoded.NewFeeBasisPoints)

				if admin, ok := tc.NewAdmin.Get(); ok {
					decodedAdmin, _ := decoded.NewAdmin.Get()
					assert.Equal(t, admin, decodedAdmin)
				}
				if server, ok := tc.NewServer.Get(); ok {
					decodedServer, _ := decoded.NewServer.Get()
					assert.Equal(t, server, decodedServer)
				}
			}
		})
	}
}

func TestInstructionBuilders_InvalidInput(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)

	initialize := func(schema Schema, fee uint64) func() {
		return func() {
			NewInitializeConfigInstruction(
				PROGRAM_ID,
				schema,
				&InitializeConfigInstructionAccounts{Config: keys[0], Base: keys[1], Admin: keys[2], Server: keys[3]},
				&InitializeConfigInstructionArgs{Bump: 255, FeeBasisPoints: fee},
			)
		}
	}
	update := func(schema Schema, args UpdateConfigInstructionArgs) func() {
		return func() {
			NewUpdateConfigInstruction(
				PROGRAM_ID,
				schema,
				&UpdateConfigInstructionAccounts{Config: keys[0], Admin: keys[2]},
				&args,
			)
		}
	}

	assert.NotPanics(t, initialize(SchemaNoServer16, SchemaNoServer16.MaxFee()))
	assert.Panics(t, initialize(SchemaNoServer16, 70000))
	assert.Panics(t, initialize(SchemaDefault, SchemaDefault.MaxFee()+1))

	keepAll := UpdateConfigInstructionArgs{
		NewAdmin:          Keep[ed25519.PublicKey](),
		NewServer:         Keep[ed25519.PublicKey](),
		NewFeeBasisPoints: Keep[uint64](),
	}
	assert.NotPanics(t, update(SchemaDefault, keepAll))

	args := keepAll
	args.NewFeeBasisPoints = SetTo[uint64](70000)
	assert.Panics(t, update(SchemaNoServer16, args))

	args = keepAll
	args.NewAdmin = SetTo[ed25519.PublicKey](nil)
	assert.Panics(t, update(SchemaDefault, args))

	args = keepAll
	args.NewServer = SetTo(keys[3][:16])
	assert.Panics(t, update(SchemaDefault, args))

	args = keepAll
	args.NewServer = SetTo(keys[3])
	assert.NotPanics(t, update(SchemaDefault, args))
	assert.Panics(t, update(SchemaNoServer64, args))
}

func TestDecodeUpdateConfigInstructionArgs_InvalidFlags(t *testing.T) {
	for _, schema := range allSchemas {
		t.Run(schema.Name, func(t *testing.T) {
			valid := make([]byte, schema.UpdateConfigArgsSize())
			_, err := DecodeUpdateConfigInstructionArgs(schema, valid)
			require.NoError(t, err)

			flagOffsets := []int{0}
			if schema.HasServer {
				flagOffsets = append(flagOffsets, 33)
			}
			flagOffsets = append(flagOffsets, len(valid)-1-schema.FeeWidth)

			for _, offset := range flagOffsets {
				for _, flag := range []byte{2, 0xff} {
					data := append([]byte(nil), valid...)
					data[offset] = flag

					_, err := DecodeUpdateConfigInstructionArgs(schema, data)
					assert.Equal(t, ErrMalformedPayload, err, "offset %d flag %d", offset, flag)
				}
			}

			_, err = DecodeUpdateConfigInstructionArgs(schema, valid[1:])
			assert.Equal(t, ErrMalformedPayload, err)
		})
	}
}

func TestMaybe(t *testing.T) {
	keep := Keep[uint64]()
	_, ok := keep.Get()
	assert.False(t, ok)
	assert.False(t, keep.IsSet())

	set := SetTo[uint64](0)
	v, ok := set.Get()
	assert.True(t, ok)
	assert.True(t, set.IsSet())
	assert.Zero(t, v)
}
