package parcel

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parceltrack/internal/apperr"
)

func TestCreateParcelDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.svc.Create(ctx, CreateRequest{
		Description:     "two crates of glassware",
		Weight:          18.2,
		DestinationCity: "Marseille",
		SenderID:        env.client.ID,
		RecipientID:     env.recipient.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, p.Status)
	assert.Equal(t, PriorityNormal, p.Priority, "priority defaults to NORMAL")
	assert.Nil(t, p.CollectedAt)
	assert.Nil(t, p.DeliveredAt)
	assert.Equal(t, env.clock.Now(), p.CreatedAt)

	history, err := env.svc.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StatusCreated, history[0].Status)
	assert.Equal(t, "parcel created", history[0].Comment)
	assert.Empty(t, history[0].ModifiedBy)
}

func TestCreateParcelValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	valid := CreateRequest{
		Description:     "box",
		Weight:          1,
		DestinationCity: "Paris",
		SenderID:        env.client.ID,
		RecipientID:     env.recipient.ID,
	}

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		kind   apperr.Kind
	}{
		{"blank description", func(r *CreateRequest) { r.Description = "   " }, apperr.KindInvalid},
		{"zero weight", func(r *CreateRequest) { r.Weight = 0 }, apperr.KindInvalid},
		{"negative weight", func(r *CreateRequest) { r.Weight = -4 }, apperr.KindInvalid},
		{"blank city", func(r *CreateRequest) { r.DestinationCity = "" }, apperr.KindInvalid},
		{"unknown priority", func(r *CreateRequest) { r.Priority = "SOMEDAY" }, apperr.KindInvalid},
		{"unknown sender", func(r *CreateRequest) { r.SenderID = uuid.New() }, apperr.KindNotFound},
		{"unknown recipient", func(r *CreateRequest) { r.RecipientID = uuid.New() }, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := env.svc.Create(ctx, req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestStatusTransitionsAreAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	steps := []struct {
		status  Status
		comment string
	}{
		{StatusCollected, "picked up at warehouse"},
		{StatusInTransit, ""},
		{StatusDelivered, "signed by recipient"},
	}
	for _, step := range steps {
		env.clock.Advance(time.Hour)
		updated, err := env.svc.UpdateStatus(ctx, p.ID, StatusRequest{
			Status:     step.status,
			Comment:    step.comment,
			ModifiedBy: "max",
		})
		require.NoError(t, err)
		assert.Equal(t, step.status, updated.Status)
	}

	history, err := env.svc.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 4, "initial entry plus one per change")

	// Newest first.
	assert.Equal(t, StatusDelivered, history[0].Status)
	assert.Equal(t, "signed by recipient", history[0].Comment)
	assert.Equal(t, "max", history[0].ModifiedBy)
	assert.Equal(t, StatusCreated, history[3].Status)
	for i := 0; i < len(history)-1; i++ {
		assert.False(t, history[i].ChangedAt.Before(history[i+1].ChangedAt))
	}
}

func TestStatusTimestampsSetOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	env.clock.Advance(time.Hour)
	updated, err := env.svc.UpdateStatus(ctx, p.ID, StatusRequest{Status: StatusCollected})
	require.NoError(t, err)
	require.NotNil(t, updated.CollectedAt)
	firstCollected := *updated.CollectedAt

	env.clock.Advance(time.Hour)
	_, err = env.svc.UpdateStatus(ctx, p.ID, StatusRequest{Status: StatusReturned})
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	updated, err = env.svc.UpdateStatus(ctx, p.ID, StatusRequest{Status: StatusCollected})
	require.NoError(t, err)
	assert.Equal(t, firstCollected, *updated.CollectedAt, "revisiting COLLECTED must not restamp")

	env.clock.Advance(time.Hour)
	updated, err = env.svc.UpdateStatus(ctx, p.ID, StatusRequest{Status: StatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)
	assert.Equal(t, env.clock.Now(), *updated.DeliveredAt)
}

func TestSameStatusIsSilentNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	before, err := env.svc.History(ctx, p.ID)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	updated, err := env.svc.UpdateStatus(ctx, p.ID, StatusRequest{Status: StatusCreated, Comment: "retry"})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, updated.Status)
	assert.Equal(t, p.UpdatedAt, updated.UpdatedAt, "no-op must not touch the parcel")

	after, err := env.svc.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "no-op must not add a history entry")
}

func TestUpdateStatusValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	_, err := env.svc.UpdateStatus(ctx, p.ID, StatusRequest{Status: "LOST"})
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

	_, err = env.svc.UpdateStatus(ctx, uuid.New(), StatusRequest{Status: StatusCollected})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	weight := 9.9
	updated, err := env.svc.Update(ctx, p.ID, UpdateRequest{Weight: &weight})
	require.NoError(t, err)
	assert.Equal(t, weight, updated.Weight)
	assert.Equal(t, p.Description, updated.Description, "untouched fields keep their value")
	assert.Equal(t, p.Status, updated.Status)

	history, err := env.svc.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "a non-status update writes no history")

	status := StatusInStock
	updated, err = env.svc.Update(ctx, p.ID, UpdateRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, StatusInStock, updated.Status)

	history, err = env.svc.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "status updated", history[0].Comment)
	assert.Empty(t, history[0].ModifiedBy)
}

func TestUpdateResolvesReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	unknown := uuid.New()
	_, err := env.svc.Update(ctx, p.ID, UpdateRequest{CourierID: &unknown})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	updated, err := env.svc.Update(ctx, p.ID, UpdateRequest{CourierID: &env.courier.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.CourierID)
	assert.Equal(t, env.courier.ID, *updated.CourierID)
}

func TestLineItemLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	item, err := env.svc.AddLineItem(ctx, p.ID, AddLineItemRequest{
		ProductID: env.product.ID,
		Quantity:  3,
		UnitPrice: 12.5,
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, item.ParcelID)

	items, err := env.svc.LineItems(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, env.svc.RemoveLineItem(ctx, item.ID))
	items, err = env.svc.LineItems(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLineItemsGatedByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	item, err := env.svc.AddLineItem(ctx, p.ID, AddLineItemRequest{
		ProductID: env.product.ID,
		Quantity:  1,
		UnitPrice: 5,
	})
	require.NoError(t, err)

	_, err = env.svc.UpdateStatus(ctx, p.ID, StatusRequest{Status: StatusInTransit})
	require.NoError(t, err)

	_, err = env.svc.AddLineItem(ctx, p.ID, AddLineItemRequest{
		ProductID: env.product.ID,
		Quantity:  1,
		UnitPrice: 5,
	})
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	err = env.svc.RemoveLineItem(ctx, item.ID)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	// IN_STOCK reopens the contents.
	_, err = env.svc.UpdateStatus(ctx, p.ID, StatusRequest{Status: StatusInStock})
	require.NoError(t, err)
	require.NoError(t, env.svc.RemoveLineItem(ctx, item.ID))
}

func TestAddLineItemValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	_, err := env.svc.AddLineItem(ctx, p.ID, AddLineItemRequest{ProductID: env.product.ID, Quantity: 0, UnitPrice: 5})
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

	_, err = env.svc.AddLineItem(ctx, p.ID, AddLineItemRequest{ProductID: env.product.ID, Quantity: 1, UnitPrice: 0})
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

	_, err = env.svc.AddLineItem(ctx, p.ID, AddLineItemRequest{ProductID: uuid.New(), Quantity: 1, UnitPrice: 5})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteParcel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	require.NoError(t, env.svc.Delete(ctx, p.ID))

	_, err := env.svc.Get(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = env.svc.Delete(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestOverdueDetection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	past := env.clock.Now().Add(-2 * time.Hour)
	future := env.clock.Now().Add(48 * time.Hour)

	late, err := env.svc.Create(ctx, CreateRequest{
		Description:     "late parcel",
		Weight:          1,
		DestinationCity: "Nice",
		Deadline:        &past,
		SenderID:        env.client.ID,
		RecipientID:     env.recipient.ID,
	})
	require.NoError(t, err)

	_, err = env.svc.Create(ctx, CreateRequest{
		Description:     "on-time parcel",
		Weight:          1,
		DestinationCity: "Nice",
		Deadline:        &future,
		SenderID:        env.client.ID,
		RecipientID:     env.recipient.ID,
	})
	require.NoError(t, err)

	deliveredLate, err := env.svc.Create(ctx, CreateRequest{
		Description:     "delivered late",
		Weight:          1,
		DestinationCity: "Nice",
		Deadline:        &past,
		SenderID:        env.client.ID,
		RecipientID:     env.recipient.ID,
	})
	require.NoError(t, err)
	_, err = env.svc.UpdateStatus(ctx, deliveredLate.ID, StatusRequest{Status: StatusDelivered})
	require.NoError(t, err)

	overdue, err := env.svc.Overdue(ctx, env.clock.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
}

func TestListFilteringAndPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		env.clock.Advance(time.Minute)
		env.createParcel(t)
	}
	env.clock.Advance(time.Minute)
	urgent, err := env.svc.Create(ctx, CreateRequest{
		Description:     "fragile instruments",
		Weight:          3,
		Priority:        PriorityUrgent,
		DestinationCity: "Toulouse",
		SenderID:        env.client.ID,
		RecipientID:     env.recipient.ID,
	})
	require.NoError(t, err)

	all, err := env.svc.List(ctx, Criteria{}, Page{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, urgent.ID, all[0].ID, "newest first")

	priority := PriorityUrgent
	filtered, err := env.svc.List(ctx, Criteria{Priority: &priority}, Page{})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, urgent.ID, filtered[0].ID)

	byCity, err := env.svc.List(ctx, Criteria{City: "toul"}, Page{})
	require.NoError(t, err)
	assert.Len(t, byCity, 1, "city match is a case-insensitive substring")

	window, err := env.svc.List(ctx, Criteria{}, Page{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	empty, err := env.svc.List(ctx, Criteria{}, Page{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestKeywordSearchMatchesPartyNames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createParcel(t)

	byDescription, err := env.svc.List(ctx, Criteria{Keyword: "mugs"}, Page{})
	require.NoError(t, err)
	require.Len(t, byDescription, 1)
	assert.Equal(t, p.ID, byDescription[0].ID)

	bySender, err := env.svc.List(ctx, Criteria{Keyword: "acme"}, Page{})
	require.NoError(t, err)
	assert.Len(t, bySender, 1)

	byRecipient, err := env.svc.List(ctx, Criteria{Keyword: "receiver"}, Page{})
	require.NoError(t, err)
	assert.Len(t, byRecipient, 1)

	none, err := env.svc.List(ctx, Criteria{Keyword: "zeppelin"}, Page{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
