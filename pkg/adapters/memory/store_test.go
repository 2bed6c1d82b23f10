package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

func TestStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewStore())
}

func TestStore_SaveIsolatesCallerMutations(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sess := domain.NewSession("s1")
	sess.Profile["name"] = "Ada"
	require.NoError(t, store.Save(ctx, "s1", sess))

	// Mutating after Save must not leak into the stored copy.
	sess.Profile["name"] = "Grace"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", loaded.Profile["name"])
}
