package repository

import (
	"context"
	"testing"
	"time"

	"brawler/events"
	"brawler/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitPersistsChanges(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.UserRepository().Create(ctx, testutil.CreateTestUser("bettor-1", "bettor")))
	require.NoError(t, uow.Commit())

	user, err := NewUserRepository(testDB.DB).GetByID(ctx, "bettor-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "bettor", user.Username)
}

func TestUnitOfWork_RollbackDiscardsChanges(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.UserRepository().Create(ctx, testutil.CreateTestUser("phantom", "phantom")))
	require.NoError(t, uow.Rollback())

	user, err := NewUserRepository(testDB.DB).GetByID(ctx, "phantom")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUnitOfWork_RollbackAfterCommitIsSafe(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Commit())
	// deferred Rollback after a successful Commit must not error
	require.NoError(t, uow.Rollback())
}

func TestUnitOfWork_EventsFollowTheTransaction(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	bus := events.NewBus()
	received := make(chan events.Event, 8)
	bus.Subscribe(events.EventTypeCharacterAdded, func(ctx context.Context, event events.Event) {
		received <- event
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	ctx := context.Background()

	t.Run("rollback discards events", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.CharacterAddedEvent{FighterID: "discarded"})
		require.NoError(t, uow.Rollback())

		select {
		case e := <-received:
			t.Fatalf("event emitted despite rollback: %v", e)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("commit flushes events", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.CharacterAddedEvent{FighterID: "flushed"})
		require.NoError(t, uow.Commit())

		select {
		case e := <-received:
			added, ok := e.(events.CharacterAddedEvent)
			require.True(t, ok)
			assert.Equal(t, "flushed", added.FighterID)
		case <-time.After(time.Second):
			t.Fatal("committed event never reached the bus")
		}
	})
}

func TestUnitOfWork_AccessorsPanicBeforeBegin(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	uow := factory.Create()
	assert.Panics(t, func() { uow.UserRepository() })
	assert.Panics(t, func() { uow.FighterRepository() })
}
