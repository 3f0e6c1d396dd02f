package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testMember struct {
	Cid primitive.ObjectID `bson:"cid"`
	Oid primitive.ObjectID `bson:"oid"`
	Iid primitive.ObjectID `bson:"iid"`
}

type testGroup struct {
	ID      primitive.ObjectID `bson:"_id"`
	Name    string             `bson:"name"`
	Members []testMember       `bson:"members"`
}

type testOwnerRef struct {
	Cid primitive.ObjectID  `bson:"cid"`
	Oid *primitive.ObjectID `bson:"oid,omitempty"`
}

type testResource struct {
	ID    primitive.ObjectID `bson:"_id"`
	Owner testOwnerRef       `bson:"owner"`
	Kind  string             `bson:"kind"`
}

func TestMemoryStoreFindEquality(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	require.NoError(t, store.InsertOne(ctx, "resources", testResource{ID: a, Owner: testOwnerRef{Cid: a}, Kind: "disk"}))
	require.NoError(t, store.InsertOne(ctx, "resources", testResource{ID: b, Owner: testOwnerRef{Cid: b}, Kind: "disk"}))

	var got []testResource
	require.NoError(t, store.Find(ctx, "resources", Filter{"owner.cid": a}, &got))
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0].ID)

	var one testResource
	require.NoError(t, store.FindOne(ctx, "resources", Filter{"_id": b}, &one))
	assert.Equal(t, "disk", one.Kind)

	err := store.FindOne(ctx, "resources", Filter{"_id": primitive.NewObjectID()}, &one)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreInFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	owners := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
	for _, cid := range owners {
		require.NoError(t, store.InsertOne(ctx, "resources", testResource{ID: primitive.NewObjectID(), Owner: testOwnerRef{Cid: cid}}))
	}

	var got []testResource
	require.NoError(t, store.Find(ctx, "resources", Filter{
		"owner.cid": Filter{"$in": []primitive.ObjectID{owners[0], owners[2]}},
	}, &got))
	assert.Len(t, got, 2)

	require.NoError(t, store.Find(ctx, "resources", Filter{
		"owner.cid": Filter{"$in": []primitive.ObjectID{primitive.NewObjectID()}},
	}, &got))
	assert.Empty(t, got)
}

func TestMemoryStoreArrayPath(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	cid := primitive.NewObjectID()
	other := primitive.NewObjectID()
	group := testGroup{
		ID:   primitive.NewObjectID(),
		Name: "mixed",
		Members: []testMember{
			{Cid: cid, Oid: primitive.NewObjectID(), Iid: primitive.NewObjectID()},
			{Cid: other, Oid: primitive.NewObjectID(), Iid: primitive.NewObjectID()},
		},
	}
	require.NoError(t, store.InsertOne(ctx, "groups", group))
	require.NoError(t, store.InsertOne(ctx, "groups", testGroup{ID: primitive.NewObjectID(), Name: "empty"}))

	var got []testGroup
	require.NoError(t, store.Find(ctx, "groups", Filter{"members.cid": cid}, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "mixed", got[0].Name)

	require.NoError(t, store.Find(ctx, "groups", Filter{"members.cid": primitive.NewObjectID()}, &got))
	assert.Empty(t, got)
}

func TestMemoryStorePullMembers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	cid := primitive.NewObjectID()
	oid := primitive.NewObjectID()
	iid := primitive.NewObjectID()
	stay := testMember{Cid: primitive.NewObjectID(), Oid: primitive.NewObjectID(), Iid: primitive.NewObjectID()}
	group := testGroup{
		ID:      primitive.NewObjectID(),
		Name:    "unit",
		Members: []testMember{{Cid: cid, Oid: oid, Iid: iid}, stay},
	}
	require.NoError(t, store.InsertOne(ctx, "groups", group))

	modified, err := store.UpdateMany(ctx, "groups", Filter{"members.iid": iid}, Update{
		"$pull": Filter{"members": Filter{"cid": cid, "oid": oid, "iid": iid}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	var got testGroup
	require.NoError(t, store.FindOne(ctx, "groups", Filter{"_id": group.ID}, &got))
	require.Len(t, got.Members, 1)
	assert.Equal(t, stay, got.Members[0])

	// pulling again matches nothing and reports zero modifications
	modified, err = store.UpdateMany(ctx, "groups", Filter{}, Update{
		"$pull": Filter{"members": Filter{"cid": cid, "oid": oid, "iid": iid}},
	})
	require.NoError(t, err)
	assert.Zero(t, modified)
}

func TestMemoryStoreSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id := primitive.NewObjectID()
	require.NoError(t, store.InsertOne(ctx, "resources", testResource{ID: id, Kind: "disk"}))

	modified, err := store.UpdateMany(ctx, "resources", Filter{"_id": id}, Update{"$set": Filter{"kind": "volume"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	var got testResource
	require.NoError(t, store.FindOne(ctx, "resources", Filter{"_id": id}, &got))
	assert.Equal(t, "volume", got.Kind)
}

func TestMemoryStoreDeleteMany(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	cid := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.InsertOne(ctx, "resources", testResource{ID: primitive.NewObjectID(), Owner: testOwnerRef{Cid: cid}}))
	}
	require.NoError(t, store.InsertOne(ctx, "resources", testResource{ID: primitive.NewObjectID(), Owner: testOwnerRef{Cid: primitive.NewObjectID()}}))

	deleted, err := store.DeleteMany(ctx, "resources", Filter{"owner.cid": cid})
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, 1, store.Count("resources", Filter{}))

	// deleting again is a no-op
	deleted, err = store.DeleteMany(ctx, "resources", Filter{"owner.cid": cid})
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestMemoryStoreListCollections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.InsertOne(ctx, "customers", bson.M{"_id": primitive.NewObjectID()}))
	require.NoError(t, store.InsertOne(ctx, "users", bson.M{"_id": primitive.NewObjectID()}))

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"customers", "users"}, names)
}
