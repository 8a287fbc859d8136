package worksheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/splitsheet/worksheet"
)

func firstEntry(t *testing.T, doc *worksheet.Document) worksheet.EntryID {
	t.Helper()
	ids := doc.EntryIDs()
	require.NotEmpty(t, ids)
	return ids[0]
}

func mustEntry(t *testing.T, doc *worksheet.Document, id worksheet.EntryID) *worksheet.Entry {
	t.Helper()
	e, ok := doc.Entry(id)
	require.True(t, ok, "entry %d missing", id)
	return &e
}

func mustResult(t *testing.T, doc *worksheet.Document, id worksheet.EntryID) worksheet.AllocationResult {
	t.Helper()
	r, ok := doc.Result(id)
	require.True(t, ok, "result %d missing", id)
	return r
}

// =============================================================================
// DOCUMENT LIFECYCLE
// =============================================================================

func TestNew_DefaultGrid(t *testing.T) {
	doc := worksheet.New("Trip", 3)

	parts := doc.Registry().Participants()
	require.Len(t, parts, 3)
	assert.Equal(t, "Name 1", parts[0].Name)
	assert.Equal(t, "Name 3", parts[2].Name)
	assert.Equal(t, worksheet.ParticipantID(3), parts[2].ID)

	require.Len(t, doc.EntryIDs(), 1)
	e := mustEntry(t, doc, firstEntry(t, doc))
	assert.Equal(t, worksheet.ModeEqual, e.Mode)
	assert.True(t, e.Amount.IsZero())
	assert.Empty(t, e.Selected)
	assert.Equal(t, worksheet.NoPayer, e.PaidBy)
}

func TestNew_AtLeastOneParticipant(t *testing.T) {
	for _, n := range []int{0, -4} {
		doc := worksheet.New("x", n)
		assert.Equal(t, 1, doc.Registry().Len())
	}
}

func TestRebuild_ResetsCounters(t *testing.T) {
	// GIVEN: a grid that has grown and shrunk
	doc := worksheet.New("x", 2)
	doc.AddParticipant("Extra")
	doc.AddEntry()
	doc.AddEntry()

	// WHEN
	diff := doc.Rebuild(4)

	// THEN: fresh ids from 1, one empty entry, old rows reported removed
	assert.True(t, diff.Rebuilt)
	assert.True(t, diff.RegistryChanged)
	assert.ElementsMatch(t, []worksheet.EntryID{1, 2, 3}, diff.RemovedEntries)
	assert.Equal(t, []worksheet.EntryID{1}, doc.EntryIDs())
	assert.Equal(t, []worksheet.ParticipantID{1, 2, 3, 4}, doc.Registry().IDs())
	assert.Equal(t, "Name 4", doc.Registry().Name(4))
}

func TestClone_IsIndependent(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)
	_, err := doc.SelectAll(id)
	require.NoError(t, err)

	c := doc.Clone()
	_, err = c.SetAmount(id, dec("100"))
	require.NoError(t, err)
	_, err = c.RemoveParticipant(2)
	require.NoError(t, err)

	assert.True(t, mustEntry(t, doc, id).Amount.IsZero())
	assert.True(t, mustEntry(t, doc, id).IsSelected(2))
	assert.Equal(t, 2, doc.Registry().Len())
}

// =============================================================================
// SPLITTING THROUGH THE COORDINATOR
// =============================================================================

func TestEqualMode_SplitsAmountAcrossSelected(t *testing.T) {
	// GIVEN: 2 participants, Equal mode
	doc := worksheet.New("split", 2)
	id := firstEntry(t, doc)

	// WHEN: amount 100, both selected
	_, err := doc.SetAmount(id, dec("100"))
	require.NoError(t, err)
	diff, err := doc.SelectAll(id)
	require.NoError(t, err)

	// THEN
	assert.Equal(t, []worksheet.EntryID{id}, diff.ChangedEntries)
	res := mustResult(t, doc, id)
	assertAmount(t, "50", res.Share(1))
	assertAmount(t, "50", res.Share(2))
	assertAmount(t, "0", res.AmountLeft)
}

func TestSetOverride_RemainderAutoFilledAcrossUnspecified(t *testing.T) {
	// GIVEN: 3 participants, Unequal mode, amount 100
	doc := worksheet.New("split", 3)
	id := firstEntry(t, doc)
	_, err := doc.SetMode(id, worksheet.ModeUnequal)
	require.NoError(t, err)
	_, err = doc.SetAmount(id, dec("100"))
	require.NoError(t, err)

	// WHEN: participant 1 specifies 40, then everyone is selected
	_, err = doc.SetOverride(id, 1, dec("40"))
	require.NoError(t, err)
	_, err = doc.SelectAll(id)
	require.NoError(t, err)

	// THEN: 60 was left before the fill; 2 and 3 get 30 each
	res := mustResult(t, doc, id)
	assertAmount(t, "60", res.AmountLeft)
	assertAmount(t, "30", res.AutoFilled[2])
	assertAmount(t, "30", res.AutoFilled[3])
	assertAmount(t, "33.33", res.PerShareAverage)

	// Auto-filled values are written back as overrides
	e := mustEntry(t, doc, id)
	assertAmount(t, "40", e.Override(1))
	assertAmount(t, "30", e.Override(2))
	assertAmount(t, "30", e.Override(3))
}

func TestSetOverride_ClampedToAmount(t *testing.T) {
	// GIVEN: Unequal, amount 50, no other overrides
	doc := worksheet.New("split", 2)
	id := firstEntry(t, doc)
	_, err := doc.SetMode(id, worksheet.ModeUnequal)
	require.NoError(t, err)
	_, err = doc.SetAmount(id, dec("50"))
	require.NoError(t, err)

	// WHEN: participant 1 enters 70
	diff, err := doc.SetOverride(id, 1, dec("70"))
	require.NoError(t, err)

	// THEN: stored as 50, participant selected, nothing left
	assert.True(t, diff.Clamped)
	e := mustEntry(t, doc, id)
	assertAmount(t, "50", e.Override(1))
	assert.True(t, e.IsSelected(1))
	assertAmount(t, "0", mustResult(t, doc, id).AmountLeft)
}

func TestSetMode_RoundTripDiscardsOverrides(t *testing.T) {
	// GIVEN: Unequal entry with overrides 70/30
	doc := worksheet.New("split", 2)
	id := firstEntry(t, doc)
	_, err := doc.SetAmount(id, dec("100"))
	require.NoError(t, err)
	_, err = doc.SetMode(id, worksheet.ModeUnequal)
	require.NoError(t, err)
	_, err = doc.SetOverride(id, 1, dec("70"))
	require.NoError(t, err)
	_, err = doc.ToggleSelection(id, 2, true)
	require.NoError(t, err)
	require.True(t, dec("30").Equal(mustEntry(t, doc, id).Override(2)))

	// WHEN: switch to Equal
	_, err = doc.SetMode(id, worksheet.ModeEqual)
	require.NoError(t, err)

	// THEN: overrides discarded, equal shares
	e := mustEntry(t, doc, id)
	assert.Nil(t, e.Overrides)
	res := mustResult(t, doc, id)
	assertAmount(t, "50", res.Share(1))
	assertAmount(t, "50", res.Share(2))

	// WHEN: back to Unequal
	_, err = doc.SetMode(id, worksheet.ModeUnequal)
	require.NoError(t, err)

	// THEN: starts from nothing; the old 70/30 does not come back
	e = mustEntry(t, doc, id)
	assertAmount(t, "50", e.Override(1))
	assertAmount(t, "50", e.Override(2))
	assertAmount(t, "100", mustResult(t, doc, id).AmountLeft)
}

// =============================================================================
// ENTRY INPUTS
// =============================================================================

func TestSetAmount_NegativeBecomesZero(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)

	_, err := doc.SetAmount(id, dec("-10"))
	require.NoError(t, err)

	assert.True(t, mustEntry(t, doc, id).Amount.IsZero())
}

func TestSetAmount_DoesNotShrinkOverrides(t *testing.T) {
	// GIVEN: amount 100 with participant 1 at 70
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)
	_, _ = doc.SetAmount(id, dec("100"))
	_, _ = doc.SetMode(id, worksheet.ModeUnequal)
	_, err := doc.SetOverride(id, 1, dec("70"))
	require.NoError(t, err)

	// WHEN: amount drops to 50
	_, err = doc.SetAmount(id, dec("50"))
	require.NoError(t, err)

	// THEN: the override stays and amount left goes negative
	assertAmount(t, "70", mustEntry(t, doc, id).Override(1))
	assertAmount(t, "-20", mustResult(t, doc, id).AmountLeft)

	// AND: the next edit on another participant clamps to zero
	diff, err := doc.SetOverride(id, 2, dec("10"))
	require.NoError(t, err)
	assert.True(t, diff.Clamped)
	assert.NotContains(t, mustEntry(t, doc, id).Overrides, worksheet.ParticipantID(2))
}

func TestSetOverride_ClampIdempotent(t *testing.T) {
	// GIVEN: amount 100, participants 1 and 2 already specify 30 and 20
	doc := worksheet.New("x", 3)
	id := firstEntry(t, doc)
	_, _ = doc.SetMode(id, worksheet.ModeUnequal)
	_, _ = doc.SetAmount(id, dec("100"))
	_, err := doc.SetOverride(id, 1, dec("30"))
	require.NoError(t, err)
	_, err = doc.SetOverride(id, 2, dec("20"))
	require.NoError(t, err)

	for _, v := range []string{"50", "60", "1000"} {
		// WHEN: participant 3 enters an amount at or past the remainder
		_, err := doc.SetOverride(id, 3, dec(v))
		require.NoError(t, err)

		// THEN: always stored as 50
		assertAmount(t, "50", mustEntry(t, doc, id).Override(3))
	}
	assert.True(t, mustResult(t, doc, id).Allocated().Equal(dec("100")))
}

func TestSetOverride_ZeroDoesNotDeselect(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)
	_, _ = doc.SetMode(id, worksheet.ModeUnequal)
	_, _ = doc.SetAmount(id, dec("100"))
	_, _ = doc.SetOverride(id, 1, dec("60"))
	_, _ = doc.ToggleSelection(id, 2, true)

	_, err := doc.SetOverride(id, 1, dec("0"))
	require.NoError(t, err)

	// THEN: still selected; as the only blank participant it absorbs the
	// remainder again
	e := mustEntry(t, doc, id)
	assert.True(t, e.IsSelected(1))
	assertAmount(t, "60", e.Override(1))
	assertAmount(t, "40", e.Override(2))
}

func TestSetOverride_EqualModeRejected(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)

	_, err := doc.SetOverride(id, 1, dec("10"))

	assert.ErrorIs(t, err, worksheet.ErrEqualModeOverride)
	assert.False(t, mustEntry(t, doc, id).IsSelected(1))
}

func TestSetOverride_UnknownReferences(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)
	_, _ = doc.SetMode(id, worksheet.ModeUnequal)

	_, err := doc.SetOverride(id, 42, dec("10"))
	assert.ErrorIs(t, err, worksheet.ErrParticipantNotFound)

	_, err = doc.SetOverride(99, 1, dec("10"))
	assert.ErrorIs(t, err, worksheet.ErrEntryNotFound)
}

func TestToggleSelection_DeselectRemovesOverride(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)
	_, _ = doc.SetMode(id, worksheet.ModeUnequal)
	_, _ = doc.SetAmount(id, dec("100"))
	_, _ = doc.SetOverride(id, 1, dec("40"))

	_, err := doc.ToggleSelection(id, 1, false)
	require.NoError(t, err)

	e := mustEntry(t, doc, id)
	assert.False(t, e.IsSelected(1))
	assert.NotContains(t, e.Overrides, worksheet.ParticipantID(1))
}

func TestClearSelection_ResetsEverything(t *testing.T) {
	doc := worksheet.New("x", 3)
	id := firstEntry(t, doc)
	_, _ = doc.SetMode(id, worksheet.ModeUnequal)
	_, _ = doc.SetAmount(id, dec("90"))
	_, _ = doc.SelectAll(id)

	_, err := doc.ClearSelection(id)
	require.NoError(t, err)

	e := mustEntry(t, doc, id)
	assert.Empty(t, e.Selected)
	assert.Empty(t, e.Overrides)
	res := mustResult(t, doc, id)
	assert.Empty(t, res.Shares)
	assertAmount(t, "0", res.PerShareAverage)
}

func TestSetMode_SameModeIsNoop(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)
	_, _ = doc.SetMode(id, worksheet.ModeUnequal)
	_, _ = doc.SetAmount(id, dec("100"))
	_, _ = doc.SetOverride(id, 1, dec("25"))

	diff, err := doc.SetMode(id, worksheet.ModeUnequal)
	require.NoError(t, err)

	assert.Equal(t, []worksheet.EntryID{id}, diff.ChangedEntries)
	assertAmount(t, "25", mustEntry(t, doc, id).Override(1))
}

// =============================================================================
// STRUCTURAL EDITS
// =============================================================================

func TestAddParticipant_NotSelectedAnywhere(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)
	_, _ = doc.SelectAll(id)

	p, diff := doc.AddParticipant("")

	assert.Equal(t, worksheet.ParticipantID(3), p.ID)
	assert.Equal(t, "Name 3", p.Name)
	assert.True(t, diff.RegistryChanged)
	assert.True(t, diff.PayerOptionsChanged)
	assert.False(t, mustEntry(t, doc, id).IsSelected(p.ID))
}

func TestRemoveParticipant_PurgesWithoutResurrection(t *testing.T) {
	// GIVEN: participant 2 selected, overridden and paying
	doc := worksheet.New("x", 3)
	id := firstEntry(t, doc)
	_, _ = doc.SetAmount(id, dec("90"))
	_, _ = doc.SetMode(id, worksheet.ModeUnequal)
	_, _ = doc.SelectAll(id)
	_, err := doc.SetPayer(id, 2)
	require.NoError(t, err)
	require.Contains(t, mustEntry(t, doc, id).Overrides, worksheet.ParticipantID(2))

	// WHEN
	diff, err := doc.RemoveParticipant(2)
	require.NoError(t, err)

	// THEN: no trace of 2, remaining ids unchanged
	assert.Equal(t, []worksheet.EntryID{id}, diff.ChangedEntries)
	e := mustEntry(t, doc, id)
	assert.False(t, e.IsSelected(2))
	assert.NotContains(t, e.Overrides, worksheet.ParticipantID(2))
	assert.Equal(t, worksheet.NoPayer, e.PaidBy)
	assert.Equal(t, []worksheet.ParticipantID{1, 3}, doc.Registry().IDs())
	assert.NotContains(t, mustResult(t, doc, id).Shares, worksheet.ParticipantID(2))

	// AND: a new participant gets a fresh id and inherits nothing
	p, _ := doc.AddParticipant("Late")
	assert.Equal(t, worksheet.ParticipantID(4), p.ID)
	e = mustEntry(t, doc, id)
	assert.False(t, e.IsSelected(p.ID))
	assert.NotContains(t, e.Overrides, p.ID)
}

func TestRemoveParticipant_Unknown(t *testing.T) {
	doc := worksheet.New("x", 2)

	_, err := doc.RemoveParticipant(7)

	assert.ErrorIs(t, err, worksheet.ErrParticipantNotFound)
}

func TestRenameParticipant_KeepsPayer(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)
	_, _ = doc.SetPayer(id, 2)

	diff, err := doc.RenameParticipant(2, "Bob")
	require.NoError(t, err)

	assert.True(t, diff.PayerOptionsChanged)
	assert.Equal(t, worksheet.ParticipantID(2), mustEntry(t, doc, id).PaidBy)
	opts := doc.PayerOptions()
	require.Len(t, opts, 2)
	assert.Equal(t, "Bob", opts[1].Name)
}

func TestEntryIDs_NeverReused(t *testing.T) {
	doc := worksheet.New("x", 2)
	second, _ := doc.AddEntry()
	assert.Equal(t, worksheet.EntryID(2), second.ID)

	diff, err := doc.RemoveEntry(second.ID)
	require.NoError(t, err)
	assert.Equal(t, []worksheet.EntryID{2}, diff.RemovedEntries)

	third, _ := doc.AddEntry()
	assert.Equal(t, worksheet.EntryID(3), third.ID)
	_, ok := doc.Result(2)
	assert.False(t, ok)
}

func TestRemoveEntry_Unknown(t *testing.T) {
	doc := worksheet.New("x", 2)

	_, err := doc.RemoveEntry(5)

	assert.ErrorIs(t, err, worksheet.ErrEntryNotFound)
}

func TestSetPayer_Validation(t *testing.T) {
	doc := worksheet.New("x", 2)
	id := firstEntry(t, doc)

	_, err := doc.SetPayer(id, 9)
	assert.ErrorIs(t, err, worksheet.ErrParticipantNotFound)

	_, err = doc.SetPayer(id, 1)
	require.NoError(t, err)
	_, err = doc.SetPayer(id, worksheet.NoPayer)
	require.NoError(t, err)
	assert.Equal(t, worksheet.NoPayer, mustEntry(t, doc, id).PaidBy)
}

func TestSelect_SpreadsRemainderAcrossBatch(t *testing.T) {
	// GIVEN: 4 participants, 100 with participant 1 at 40
	doc := worksheet.New("x", 4)
	id := firstEntry(t, doc)
	_, _ = doc.SetMode(id, worksheet.ModeUnequal)
	_, _ = doc.SetAmount(id, dec("100"))
	_, _ = doc.SetOverride(id, 1, dec("40"))

	// WHEN: 2 and 4 join together
	_, err := doc.Select(id, 2, 4)
	require.NoError(t, err)

	// THEN: they split the 60 and 3 stays out
	e := mustEntry(t, doc, id)
	assertAmount(t, "30", e.Override(2))
	assertAmount(t, "30", e.Override(4))
	assert.False(t, e.IsSelected(3))

	_, err = doc.Select(id, 3, 12)
	assert.ErrorIs(t, err, worksheet.ErrParticipantNotFound)
	assert.False(t, mustEntry(t, doc, id).IsSelected(3), "failed batch selects nobody")
}
