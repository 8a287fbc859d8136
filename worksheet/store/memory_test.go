package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/splitsheet/worksheet"
)

func TestMemory_CreateAssignsID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	doc := worksheet.New("Trip", 2)

	require.NoError(t, m.Create(ctx, doc))

	assert.NotEmpty(t, doc.ID)
	got, err := m.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip", got.Name)
	assert.Equal(t, 1, m.Len())

	err = m.Create(ctx, doc)
	assert.Error(t, err, "duplicate id should be rejected")
}

func TestMemory_GetUnknown(t *testing.T) {
	_, err := NewMemory().Get(context.Background(), "nope")

	assert.ErrorIs(t, err, worksheet.ErrWorksheetNotFound)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	doc := worksheet.New("Trip", 2)
	require.NoError(t, m.Create(ctx, doc))

	// WHEN: the caller mutates what Get returned
	got, err := m.Get(ctx, doc.ID)
	require.NoError(t, err)
	got.AddParticipant("Stray")

	// THEN: the stored worksheet is untouched
	again, err := m.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Registry().Len())
}

func TestMemory_UpdateRollsBackOnError(t *testing.T) {
	// GIVEN: a stored worksheet
	ctx := context.Background()
	m := NewMemory()
	doc := worksheet.New("Trip", 2)
	require.NoError(t, m.Create(ctx, doc))
	entryID := doc.EntryIDs()[0]

	// WHEN: fn mutates and then fails
	boom := errors.New("boom")
	_, err := m.Update(ctx, doc.ID, func(d *worksheet.Document) error {
		if _, err := d.SetAmount(entryID, decimal.NewFromInt(100)); err != nil {
			return err
		}
		d.AddParticipant("Ghost")
		return boom
	})

	// THEN: nothing was committed
	assert.ErrorIs(t, err, boom)
	got, err := m.Get(ctx, doc.ID)
	require.NoError(t, err)
	e, _ := got.Entry(entryID)
	assert.True(t, e.Amount.IsZero())
	assert.Equal(t, 2, got.Registry().Len())
}

func TestMemory_UpdateCommits(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	doc := worksheet.New("Trip", 2)
	require.NoError(t, m.Create(ctx, doc))
	entryID := doc.EntryIDs()[0]

	updated, err := m.Update(ctx, doc.ID, func(d *worksheet.Document) error {
		_, err := d.SetAmount(entryID, decimal.NewFromInt(40))
		return err
	})
	require.NoError(t, err)

	e, _ := updated.Entry(entryID)
	assert.True(t, e.Amount.Equal(decimal.NewFromInt(40)))
	got, _ := m.Get(ctx, doc.ID)
	e, _ = got.Entry(entryID)
	assert.True(t, e.Amount.Equal(decimal.NewFromInt(40)))
}

func TestMemory_UpdateCancelledContext(t *testing.T) {
	m := NewMemory()
	doc := worksheet.New("Trip", 2)
	require.NoError(t, m.Create(context.Background(), doc))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := m.Update(ctx, doc.ID, func(*worksheet.Document) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemory_ConcurrentUpdatesSerialize(t *testing.T) {
	// GIVEN: one worksheet hammered by concurrent participant additions
	ctx := context.Background()
	m := NewMemory()
	doc := worksheet.New("Trip", 1)
	require.NoError(t, m.Create(ctx, doc))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Update(ctx, doc.ID, func(d *worksheet.Document) error {
				d.AddParticipant(fmt.Sprintf("P%d", i))
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// THEN: no lost updates, ids unique and contiguous
	got, err := m.Get(ctx, doc.ID)
	require.NoError(t, err)
	ids := got.Registry().IDs()
	require.Len(t, ids, workers+1)
	for i, id := range ids {
		assert.Equal(t, worksheet.ParticipantID(i+1), id)
	}
}

func TestMemory_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := worksheet.New("A", 2)
	b := worksheet.New("B", 3)
	require.NoError(t, m.Create(ctx, a))
	require.NoError(t, m.Create(ctx, b))

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	names := []string{list[0].Name, list[1].Name}
	assert.ElementsMatch(t, []string{"A", "B"}, names)

	require.NoError(t, m.Delete(ctx, a.ID))
	assert.ErrorIs(t, m.Delete(ctx, a.ID), worksheet.ErrWorksheetNotFound)

	list, err = m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].Name)
	assert.Equal(t, 3, list[0].Participants)
	assert.Equal(t, 1, list[0].Entries)

	_, err = m.Update(ctx, a.ID, func(*worksheet.Document) error { return nil })
	assert.ErrorIs(t, err, worksheet.ErrWorksheetNotFound)
}
