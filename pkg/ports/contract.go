package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract. Every store
// adapter (memory, redis) runs this from its own test file.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	conversationID := "contract-test-conversation-" + time.Now().Format("20060102150405")

	t.Run("Save and Get", func(t *testing.T) {
		session := domain.NewSession(conversationID, "flow-1", "node-1", time.Now().UTC())
		session.Variables["name"] = "Ana"
		session.AwaitingInput = true

		err := store.Save(ctx, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Get(ctx, conversationID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, session.FlowID, loaded.FlowID)
		assert.Equal(t, session.CurrentNodeID, loaded.CurrentNodeID)
		assert.True(t, loaded.AwaitingInput)
		assert.Equal(t, "Ana", loaded.Variables["name"])
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Save Isolates Caller Mutations", func(t *testing.T) {
		session := domain.NewSession(conversationID, "flow-1", "node-1", time.Now().UTC())
		session.Variables["email"] = "user@example.com"
		require.NoError(t, store.Save(ctx, session))

		// Mutating the saved pointer must not leak into the store.
		session.Variables["email"] = "changed@example.com"

		loaded, err := store.Get(ctx, conversationID)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", loaded.Variables["email"])
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSession(conversationID, "flow-1", "node-1", time.Now().UTC())))

		err := store.Delete(ctx, conversationID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Get after Delete should return ErrSessionNotFound")
	})

	t.Run("Delete Non-Existent Is Silent", func(t *testing.T) {
		err := store.Delete(ctx, "non-existent-"+conversationID)
		assert.NoError(t, err)
	})
}
