package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLinkSignerGenerateAndParse(t *testing.T) {
	signer := NewLinkSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("customer-1", "statements/1/billing.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	owner, name, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "customer-1", owner)
	require.Equal(t, "statements/1/billing.csv", name)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestLinkSignerExpired(t *testing.T) {
	signer := NewLinkSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("customer-1", "statements/1/billing.csv")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	owner, name, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "customer-1", owner)
	require.Equal(t, "statements/1/billing.csv", name)
}

func TestLinkSignerRejectsTamperedToken(t *testing.T) {
	signer := NewLinkSigner("secret", time.Hour)
	token, _, err := signer.Generate("customer-1", "statements/1/billing.csv")
	require.NoError(t, err)

	_, _, _, err = NewLinkSigner("other", time.Hour).Parse(token, false)
	require.Error(t, err)
}

func TestLocalStoreSaveOpenPrune(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("statements/1/billing.csv", []byte("Item,Total\n"))
	require.NoError(t, err)
	require.Equal(t, "statements/1/billing.csv", name)

	file, err := store.Open(name)
	require.NoError(t, err)
	data, err := os.ReadFile(file.Name())
	require.NoError(t, err)
	require.NoError(t, file.Close())
	require.Equal(t, "Item,Total\n", string(data))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.resolve(name), past, past))

	pruned, err := store.PruneOlderThan(time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.FromSlash("statements/1/billing.csv")}, pruned)

	_, err = store.Open(name)
	require.Error(t, err)
}
