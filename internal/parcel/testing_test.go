package parcel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"parceltrack/internal/identity"
	"parceltrack/internal/refdata"
)

// fakeClock drives the engine's notion of time in tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// testEnv is a fully wired engine over in-memory storage with seeded
// reference data.
type testEnv struct {
	svc       *service
	scoped    *Scoped
	refs      refdata.Store
	repo      Repository
	clock     *fakeClock
	client    *refdata.Client
	recipient *refdata.Recipient
	courier   *refdata.Courier
	zone      *refdata.Zone
	product   *refdata.Product
}

func newTestEnv(t require.TestingT) *testEnv {
	ctx := context.Background()
	refs := refdata.NewMemoryStore()
	repo := NewMemoryRepository(refs)

	svc, ok := NewService(repo, refs).(*service)
	require.True(t, ok)
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	svc.now = clock.Now

	env := &testEnv{
		svc:    svc,
		scoped: NewScoped(svc),
		refs:   refs,
		repo:   repo,
		clock:  clock,
		client: &refdata.Client{
			ID:    uuid.New(),
			Name:  "Acme Imports",
			Email: "contact@acme.test",
		},
		recipient: &refdata.Recipient{
			ID:   uuid.New(),
			Name: "Dana Receiver",
			City: "Lyon",
		},
		courier: &refdata.Courier{
			ID:        uuid.New(),
			Name:      "Max Runner",
			Email:     "max@courier.test",
			Available: true,
		},
		zone: &refdata.Zone{
			ID:   uuid.New(),
			Name: "Zone Nord",
		},
		product: &refdata.Product{
			ID:    uuid.New(),
			Name:  "Ceramic Mug",
			Price: 12.5,
		},
	}

	require.NoError(t, refs.CreateClient(ctx, env.client))
	require.NoError(t, refs.CreateRecipient(ctx, env.recipient))
	require.NoError(t, refs.CreateCourier(ctx, env.courier))
	require.NoError(t, refs.CreateZone(ctx, env.zone))
	require.NoError(t, refs.CreateProduct(ctx, env.product))
	return env
}

func (e *testEnv) createParcel(t require.TestingT) *Parcel {
	p, err := e.svc.Create(context.Background(), CreateRequest{
		Description:     "box of mugs",
		Weight:          2.4,
		DestinationCity: "Lyon",
		SenderID:        e.client.ID,
		RecipientID:     e.recipient.ID,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) assignCourier(t require.TestingT, parcelID, courierID uuid.UUID) {
	_, err := e.svc.Update(context.Background(), parcelID, UpdateRequest{CourierID: &courierID})
	require.NoError(t, err)
}

func managerPrincipal() identity.Principal {
	return identity.Principal{
		AccountID: uuid.New(),
		Username:  "boss",
		Roles:     []identity.Role{identity.RoleManager},
	}
}

func courierPrincipal(courierID *uuid.UUID) identity.Principal {
	return identity.Principal{
		AccountID: uuid.New(),
		Username:  "max",
		Roles:     []identity.Role{identity.RoleCourier},
		CourierID: courierID,
	}
}

func clientPrincipal(clientID *uuid.UUID) identity.Principal {
	return identity.Principal{
		AccountID: uuid.New(),
		Username:  "acme",
		Roles:     []identity.Role{identity.RoleClient},
		ClientID:  clientID,
	}
}
