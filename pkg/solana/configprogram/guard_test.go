package configprogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/system"
	"github.com/code-payments/code-config-program/pkg/testutil"
)

func TestRequireSigner(t *testing.T) {
	key := testutil.GenerateSolanaKeys(t, 1)[0]

	assert.Equal(t, ErrMissingSignature, RequireSigner(solana.NewKeyedAccount(key, solana.AccountInfo{}, false, true), false))
	assert.Equal(t, ErrMissingSignature, RequireSigner(solana.NewKeyedAccount(key, solana.AccountInfo{}, false, true), true))
	assert.NoError(t, RequireSigner(solana.NewKeyedAccount(key, solana.AccountInfo{}, true, false), false))
	assert.Equal(t, ErrNotWritable, RequireSigner(solana.NewKeyedAccount(key, solana.AccountInfo{}, true, false), true))
	assert.NoError(t, RequireSigner(solana.NewKeyedAccount(key, solana.AccountInfo{}, true, true), true))

	assert.Equal(t, ErrNotWritable, RequireWritable(solana.NewKeyedAccount(key, solana.AccountInfo{}, true, false)))
}

func TestRequireOwnership(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	owned := solana.NewKeyedAccount(keys[0], solana.AccountInfo{Owner: PROGRAM_ID}, false, true)
	assert.NoError(t, RequireOwnedBy(owned, PROGRAM_ID))
	assert.Equal(t, ErrInvalidOwner, RequireOwnedBy(owned, keys[1]))

	fresh := solana.NewKeyedAccount(keys[0], solana.AccountInfo{Owner: system.SystemAccount}, false, true)
	assert.NoError(t, RequireFreshSystemAccount(fresh, PROGRAM_ID))

	funded := solana.NewKeyedAccount(keys[0], solana.AccountInfo{Owner: system.SystemAccount, Lamports: 10}, false, true)
	assert.NoError(t, RequireFreshSystemAccount(funded, PROGRAM_ID))

	withData := solana.NewKeyedAccount(keys[0], solana.AccountInfo{Owner: system.SystemAccount, Data: []byte{0}}, false, true)
	assert.Equal(t, ErrAlreadyInitialized, RequireFreshSystemAccount(withData, PROGRAM_ID))

	assert.Equal(t, ErrAlreadyInitialized, RequireFreshSystemAccount(owned, PROGRAM_ID))

	foreign := solana.NewKeyedAccount(keys[0], solana.AccountInfo{Owner: keys[1]}, false, true)
	assert.Equal(t, ErrInvalidOwner, RequireFreshSystemAccount(foreign, PROGRAM_ID))
}

func TestRequireAdminMatch(t *testing.T) {
	schema := SchemaNoServer16
	config := newTestConfigAccount(t, schema)
	data, err := config.Marshal(schema)
	require.NoError(t, err)

	account := solana.NewKeyedAccount(testutil.GenerateSolanaKeys(t, 1)[0], solana.AccountInfo{Data: data}, false, true)
	ref, err := account.TryBorrowData()
	require.NoError(t, err)
	defer ref.Release()

	view, err := ViewConfig(schema, ref)
	require.NoError(t, err)

	admin := solana.NewKeyedAccount(config.Admin, solana.AccountInfo{}, true, false)
	assert.NoError(t, RequireAdminMatch(view, admin))

	impostor := solana.NewKeyedAccount(testutil.GenerateSolanaKeys(t, 1)[0], solana.AccountInfo{}, true, false)
	assert.Equal(t, ErrUnauthorized, RequireAdminMatch(view, impostor))
}

func TestRequireProgramAndSysvar(t *testing.T) {
	other := solana.NewKeyedAccount(testutil.GenerateSolanaKeys(t, 1)[0], solana.AccountInfo{}, false, false)

	assert.NoError(t, RequireProgram(solana.NewKeyedAccount(SYSTEM_PROGRAM_ID, solana.AccountInfo{}, false, false), SYSTEM_PROGRAM_ID))
	assert.Equal(t, ErrIncorrectProgramId, RequireProgram(other, SYSTEM_PROGRAM_ID))

	assert.NoError(t, RequireSysvar(solana.NewKeyedAccount(SYSVAR_RENT_PUBKEY, solana.AccountInfo{}, false, false), SYSVAR_RENT_PUBKEY))
	assert.Equal(t, ErrInvalidSysvar, RequireSysvar(other, SYSVAR_RENT_PUBKEY))
}
