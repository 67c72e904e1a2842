package configprogram

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-config-program/pkg/code/data/ledger"
	"github.com/code-payments/code-config-program/pkg/code/data/ledger/memory"
	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/runtime"
	"github.com/code-payments/code-config-program/pkg/solana/system"
	"github.com/code-payments/code-config-program/pkg/testutil"
)

const testAirdropAmount = 10_000_000_000

type testEnv struct {
	ctx    context.Context
	schema Schema
	store  ledger.Store
	bank   *runtime.Bank

	base   ed25519.PublicKey
	admin  ed25519.PublicKey
	server ed25519.PublicKey

	config ed25519.PublicKey
	bump   uint8
}

func setup(t *testing.T, schema Schema) *testEnv {
	program, err := New(schema)
	require.NoError(t, err)

	store := memory.New()
	bank := runtime.NewBank(store, runtime.WithEnvConfigs())
	require.NoError(t, bank.RegisterProgram(PROGRAM_ID, program))

	keys := testutil.GenerateSolanaKeys(t, 3)
	env := &testEnv{
		ctx:    context.Background(),
		schema: schema,
		store:  store,
		bank:   bank,
		base:   keys[0],
		admin:  keys[1],
		server: keys[2],
	}

	env.config, env.bump, err = GetConfigAddress(PROGRAM_ID, &GetConfigAddressArgs{Base: env.base})
	require.NoError(t, err)

	require.NoError(t, bank.Airdrop(env.ctx, env.admin, testAirdropAmount))
	return env
}

func (e *testEnv) initializeIx(fee uint64) solana.Instruction {
	return NewInitializeConfigInstruction(
		PROGRAM_ID,
		e.schema,
		&InitializeConfigInstructionAccounts{
			Config: e.config,
			Base:   e.base,
			Admin:  e.admin,
			Server: e.server,
		},
		&InitializeConfigInstructionArgs{
			Bump:           e.bump,
			FeeBasisPoints: fee,
		},
	)
}

func (e *testEnv) updateIx(signer ed25519.PublicKey, args *UpdateConfigInstructionArgs) solana.Instruction {
	return NewUpdateConfigInstruction(
		PROGRAM_ID,
		e.schema,
		&UpdateConfigInstructionAccounts{
			Config: e.config,
			Admin:  signer,
		},
		args,
	)
}

func (e *testEnv) submit(ix solana.Instruction, signers ...ed25519.PublicKey) error {
	return e.bank.ProcessTransaction(e.ctx, runtime.NewTransaction(signers, ix))
}

func (e *testEnv) initialize(fee uint64) error {
	return e.submit(e.initializeIx(fee), e.admin)
}

func (e *testEnv) loadRaw(t *testing.T) solana.AccountInfo {
	info, err := e.bank.GetAccount(e.ctx, e.config)
	require.NoError(t, err)
	return info
}

func (e *testEnv) load(t *testing.T) *ConfigAccount {
	var config ConfigAccount
	require.NoError(t, config.Unmarshal(e.schema, e.loadRaw(t).Data))
	return &config
}

// seed stores an account directly, bypassing the program
func (e *testEnv) seed(t *testing.T, address, owner ed25519.PublicKey, data []byte) {
	require.NoError(t, e.store.Save(e.ctx, &ledger.Record{
		Address:  base58.Encode(address),
		Owner:    base58.Encode(owner),
		Lamports: testAirdropAmount,
		Data:     data,
	}))
}

func requireProgramError(t *testing.T, expected ProgramError, err error) {
	var ixErr solana.InstructionError
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, 0, ixErr.Index)
	assert.Equal(t, expected, ixErr.Err, "expected %s, got %v", expected.Name(), ixErr.Err)
}

func keepAll() *UpdateConfigInstructionArgs {
	return &UpdateConfigInstructionArgs{
		NewAdmin:          Keep[ed25519.PublicKey](),
		NewServer:         Keep[ed25519.PublicKey](),
		NewFeeBasisPoints: Keep[uint64](),
	}
}

func TestLifecycle_Scenario(t *testing.T) {
	for _, schema := range allSchemas {
		t.Run(schema.Name, func(t *testing.T) {
			env := setup(t, schema)

			require.NoError(t, env.initialize(100))

			raw := env.loadRaw(t)
			assert.EqualValues(t, PROGRAM_ID, raw.Owner)
			assert.Len(t, raw.Data, schema.ConfigAccountSize())
			assert.EqualValues(t, AccountTypeConfig, raw.Data[0])

			rent := env.bank.Rent(env.ctx)
			assert.Equal(t, rent.MinimumBalance(uint64(schema.ConfigAccountSize())), raw.Lamports)

			funder, err := env.bank.GetAccount(env.ctx, env.admin)
			require.NoError(t, err)
			assert.EqualValues(t, testAirdropAmount-raw.Lamports, funder.Lamports)

			config := env.load(t)
			assert.Equal(t, env.bump, config.Bump)
			assert.EqualValues(t, env.base, config.Base)
			assert.EqualValues(t, env.admin, config.Admin)
			assert.EqualValues(t, 100, config.FeeBasisPoints)
			if schema.HasServer {
				assert.EqualValues(t, env.server, config.Server)
			} else {
				assert.Nil(t, config.Server)
			}

			newAdmin := testutil.GenerateSolanaKeys(t, 1)[0]
			args := keepAll()
			args.NewAdmin = SetTo(newAdmin)
			require.NoError(t, env.submit(env.updateIx(env.admin, args), env.admin))

			config = env.load(t)
			assert.EqualValues(t, newAdmin, config.Admin)
			assert.EqualValues(t, 100, config.FeeBasisPoints)
			assert.EqualValues(t, env.base, config.Base)

			before := env.loadRaw(t)

			args = keepAll()
			args.NewFeeBasisPoints = SetTo[uint64](1)
			requireProgramError(t, ErrUnauthorized, env.submit(env.updateIx(env.admin, args), env.admin))

			assert.Equal(t, before, env.loadRaw(t))
		})
	}
}

func TestLifecycle_InitializeOnce(t *testing.T) {
	for _, schema := range allSchemas {
		t.Run(schema.Name, func(t *testing.T) {
			env := setup(t, schema)

			require.NoError(t, env.initialize(100))
			before := env.loadRaw(t)

			requireProgramError(t, ErrAlreadyInitialized, env.initialize(100))
			requireProgramError(t, ErrAlreadyInitialized, env.initialize(5))

			other := testutil.GenerateSolanaKeys(t, 1)[0]
			require.NoError(t, env.bank.Airdrop(env.ctx, other, testAirdropAmount))
			env.admin = other
			requireProgramError(t, ErrAlreadyInitialized, env.initialize(5))

			// The ownership check precedes derivation
			env.bump--
			requireProgramError(t, ErrAlreadyInitialized, env.initialize(5))

			assert.Equal(t, before, env.loadRaw(t))
		})
	}
}

func TestLifecycle_PartialUpdate(t *testing.T) {
	for _, schema := range allSchemas {
		t.Run(schema.Name, func(t *testing.T) {
			env := setup(t, schema)
			require.NoError(t, env.initialize(100))
			initial := env.load(t)

			// All Keep leaves the record untouched
			before := env.loadRaw(t)
			require.NoError(t, env.submit(env.updateIx(env.admin, keepAll()), env.admin))
			assert.Equal(t, before, env.loadRaw(t))

			args := keepAll()
			args.NewFeeBasisPoints = SetTo[uint64](42)
			require.NoError(t, env.submit(env.updateIx(env.admin, args), env.admin))
			once := env.loadRaw(t)

			require.NoError(t, env.submit(env.updateIx(env.admin, args), env.admin))
			assert.Equal(t, once, env.loadRaw(t))

			updated := env.load(t)
			assert.EqualValues(t, 42, updated.FeeBasisPoints)
			assert.Equal(t, initial.Admin, updated.Admin)
			assert.Equal(t, initial.Server, updated.Server)
			assert.Equal(t, initial.Base, updated.Base)
			assert.Equal(t, initial.Bump, updated.Bump)

			args = keepAll()
			args.NewFeeBasisPoints = SetTo(schema.MaxFee())
			require.NoError(t, env.submit(env.updateIx(env.admin, args), env.admin))
			assert.Equal(t, schema.MaxFee(), env.load(t).FeeBasisPoints)

			if schema.HasServer {
				newServer := testutil.GenerateSolanaKeys(t, 1)[0]
				args = keepAll()
				args.NewServer = SetTo(newServer)
				require.NoError(t, env.submit(env.updateIx(env.admin, args), env.admin))

				updated = env.load(t)
				assert.EqualValues(t, newServer, updated.Server)
				assert.Equal(t, initial.Admin, updated.Admin)
				assert.Equal(t, schema.MaxFee(), updated.FeeBasisPoints)
			}
		})
	}
}

func TestLifecycle_AuthorizationGating(t *testing.T) {
	env := setup(t, SchemaDefault)
	require.NoError(t, env.initialize(100))
	before := env.loadRaw(t)

	args := keepAll()
	args.NewAdmin = SetTo(testutil.GenerateSolanaKeys(t, 1)[0])

	// Stored admin listed but not signing
	ix := env.updateIx(env.admin, args)
	ix.Accounts[1].IsSigner = false
	requireProgramError(t, ErrMissingSignature, env.submit(ix))

	// Signed by someone other than the stored admin
	impostor := testutil.GenerateSolanaKeys(t, 1)[0]
	requireProgramError(t, ErrUnauthorized, env.submit(env.updateIx(impostor, args), impostor))

	// Config listed readonly
	ix = env.updateIx(env.admin, args)
	ix.Accounts[0].IsWritable = false
	requireProgramError(t, ErrNotWritable, env.submit(ix, env.admin))

	assert.Equal(t, before, env.loadRaw(t))

	// The admin does not need to be writable, and a writable admin also works
	ix = env.updateIx(env.admin, keepAll())
	ix.Accounts[1].IsWritable = true
	require.NoError(t, env.submit(ix, env.admin))
}

func TestLifecycle_InsufficientFunds(t *testing.T) {
	env := setup(t, SchemaNoServer16)

	poor := testutil.GenerateSolanaKeys(t, 1)[0]
	env.admin = poor

	err := env.initialize(1)
	var ixErr solana.InstructionError
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, system.ErrResultWithNegativeLamports, ixErr.Err)

	_, err = env.bank.GetAccount(env.ctx, env.config)
	assert.Equal(t, ledger.ErrAccountNotFound, err)
}

func TestInitialize_CheckOrder(t *testing.T) {
	for _, tc := range []struct {
		name     string
		mutate   func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey
		expected ProgramError
	}{
		{
			name: "payload before arity",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Data = ix.Data[:len(ix.Data)-1]
				ix.Accounts = ix.Accounts[:2]
				return nil
			},
			expected: ErrMalformedPayload,
		},
		{
			name: "extra payload byte",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Data = append(ix.Data, 0)
				return []ed25519.PublicKey{env.admin}
			},
			expected: ErrMalformedPayload,
		},
		{
			name: "missing account",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Accounts = ix.Accounts[:len(ix.Accounts)-1]
				return []ed25519.PublicKey{env.admin}
			},
			expected: ErrNotEnoughAccountKeys,
		},
		{
			name: "extra account",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Accounts = append(ix.Accounts, solana.NewReadonlyAccountMeta(env.server, false))
				return []ed25519.PublicKey{env.admin}
			},
			expected: ErrNotEnoughAccountKeys,
		},
		{
			name: "wrong system program",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Accounts[len(ix.Accounts)-1].PublicKey = env.server
				ix.Data[1]--
				return []ed25519.PublicKey{env.admin}
			},
			expected: ErrIncorrectProgramId,
		},
		{
			name: "wrong rent sysvar",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Accounts[len(ix.Accounts)-2].PublicKey = env.server
				return []ed25519.PublicKey{env.admin}
			},
			expected: ErrInvalidSysvar,
		},
		{
			name: "config not writable",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Accounts[0].IsWritable = false
				ix.Data[1]--
				return []ed25519.PublicKey{env.admin}
			},
			expected: ErrNotWritable,
		},
		{
			name: "wrong bump before missing signature",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Data[1]--
				ix.Accounts[2].IsSigner = false
				return nil
			},
			expected: ErrInvalidSeeds,
		},
		{
			name: "config is not the derived address",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Accounts[0].PublicKey = testutil.GenerateSolanaKeys(t, 1)[0]
				return []ed25519.PublicKey{env.admin}
			},
			expected: ErrInvalidSeeds,
		},
		{
			name: "admin not signing",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Accounts[2].IsSigner = false
				return nil
			},
			expected: ErrMissingSignature,
		},
		{
			name: "admin not writable",
			mutate: func(t *testing.T, env *testEnv, ix *solana.Instruction) []ed25519.PublicKey {
				ix.Accounts[2].IsWritable = false
				return []ed25519.PublicKey{env.admin}
			},
			expected: ErrNotWritable,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t, SchemaDefault)

			ix := env.initializeIx(100)
			signers := tc.mutate(t, env, &ix)

			requireProgramError(t, tc.expected, env.submit(ix, signers...))

			_, err := env.bank.GetAccount(env.ctx, env.config)
			assert.Equal(t, ledger.ErrAccountNotFound, err)
		})
	}
}

func TestInitialize_ForeignOwner(t *testing.T) {
	env := setup(t, SchemaNoServer64)

	env.seed(t, env.config, testutil.GenerateSolanaKeys(t, 1)[0], nil)
	requireProgramError(t, ErrInvalidOwner, env.initialize(1))

	env = setup(t, SchemaNoServer64)
	env.seed(t, env.config, system.SystemAccount, []byte{1})
	requireProgramError(t, ErrAlreadyInitialized, env.initialize(1))
}

func TestUpdate_CheckOrder(t *testing.T) {
	schema := SchemaDefault

	t.Run("payload before arity", func(t *testing.T) {
		env := setup(t, schema)
		require.NoError(t, env.initialize(100))

		ix := env.updateIx(env.admin, keepAll())
		ix.Data[1] = 2
		ix.Accounts = ix.Accounts[:1]
		requireProgramError(t, ErrMalformedPayload, env.submit(ix))
	})

	t.Run("arity", func(t *testing.T) {
		env := setup(t, schema)
		require.NoError(t, env.initialize(100))

		ix := env.updateIx(env.admin, keepAll())
		ix.Accounts = append(ix.Accounts, solana.NewReadonlyAccountMeta(env.server, false))
		requireProgramError(t, ErrNotEnoughAccountKeys, env.submit(ix, env.admin))
	})

	t.Run("uninitialized config", func(t *testing.T) {
		env := setup(t, schema)
		requireProgramError(t, ErrInvalidOwner, env.submit(env.updateIx(env.admin, keepAll()), env.admin))
	})

	t.Run("ownership before signer", func(t *testing.T) {
		env := setup(t, schema)
		env.seed(t, env.config, testutil.GenerateSolanaKeys(t, 1)[0], make([]byte, schema.ConfigAccountSize()))

		ix := env.updateIx(env.admin, keepAll())
		ix.Accounts[1].IsSigner = false
		requireProgramError(t, ErrInvalidOwner, env.submit(ix))
	})

	t.Run("size mismatch", func(t *testing.T) {
		env := setup(t, schema)
		env.seed(t, env.config, PROGRAM_ID, make([]byte, schema.ConfigAccountSize()-1))
		requireProgramError(t, ErrSizeMismatch, env.submit(env.updateIx(env.admin, keepAll()), env.admin))
	})

	t.Run("type mismatch", func(t *testing.T) {
		env := setup(t, schema)
		env.seed(t, env.config, PROGRAM_ID, make([]byte, schema.ConfigAccountSize()))
		requireProgramError(t, ErrTypeMismatch, env.submit(env.updateIx(env.admin, keepAll()), env.admin))
	})

	t.Run("stored seeds do not derive the account", func(t *testing.T) {
		env := setup(t, schema)

		config := &ConfigAccount{
			Bump:   env.bump,
			Base:   testutil.GenerateSolanaKeys(t, 1)[0],
			Admin:  env.admin,
			Server: env.server,
		}
		data, err := config.Marshal(schema)
		require.NoError(t, err)
		env.seed(t, env.config, PROGRAM_ID, data)

		requireProgramError(t, ErrInvalidSeeds, env.submit(env.updateIx(env.admin, keepAll()), env.admin))
	})

	t.Run("signer before admin match", func(t *testing.T) {
		env := setup(t, schema)
		require.NoError(t, env.initialize(100))

		impostor := testutil.GenerateSolanaKeys(t, 1)[0]
		ix := env.updateIx(impostor, keepAll())
		ix.Accounts[1].IsSigner = false
		requireProgramError(t, ErrMissingSignature, env.submit(ix))
	})
}

func TestDispatcher(t *testing.T) {
	env := setup(t, SchemaNoServer16)
	logs := testutil.CaptureLogs(t)

	for _, data := range [][]byte{
		nil,
		{0},
		{3},
		{0xff, 1, 2, 3},
	} {
		ix := solana.NewInstruction(PROGRAM_ID, data, solana.NewAccountMeta(env.config, false))
		requireProgramError(t, ErrUnknownInstruction, env.submit(ix))
	}

	var logged bool
	for _, entry := range logs.AllEntries() {
		if entry.Message == "unknown instruction opcode" && entry.Data["opcode"] == byte(0xff) {
			logged = true
		}
	}
	assert.True(t, logged)

	// Payload lengths follow the registered schema
	wide := setup(t, SchemaNoServer64)
	ix := wide.initializeIx(1)
	ix.Data = ix.Data[:1+SchemaNoServer16.InitializeConfigArgsSize()]
	requireProgramError(t, ErrMalformedPayload, wide.submit(ix, wide.admin))

	ix = env.updateIx(env.admin, keepAll())
	ix.Data = append(ix.Data, 0)
	requireProgramError(t, ErrMalformedPayload, env.submit(ix, env.admin))
}
