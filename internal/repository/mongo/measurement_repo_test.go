package mongo

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMeasurementRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	userID := primitive.NewObjectID()
	ns := "test." + measurementCollectionName

	mt.Run("get missing measurement", func(mt *mtest.T) {
		repo := NewMongoMeasurementRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("list newest first for the owner", func(mt *mtest.T) {
		repo := NewMongoMeasurementRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "userId", Value: userID}, {Key: "date", Value: "2024-05-10"}, {Key: "weightKg", Value: 81.5}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "userId", Value: userID}, {Key: "date", Value: "2024-05-03"}},
		))

		ms, err := repo.ListByUser(ctx, userID, "2024-05-01", "")
		require.NoError(mt, err)
		require.Len(mt, ms, 2)
		require.NotNil(mt, ms[0].WeightKg)
		assert.Equal(mt, 81.5, *ms[0].WeightKg)
		assert.Nil(mt, ms[1].WeightKg)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		filter := evt.Command.Lookup("filter").Document()
		assert.Equal(mt, userID, filter.Lookup("userId").ObjectID())
		assert.Equal(mt, "2024-05-01", filter.Lookup("date", "$gte").StringValue())
		assert.Equal(mt, int64(-1), evt.Command.Lookup("sort", "date").AsInt64())
	})

	mt.Run("set photo on missing measurement", func(mt *mtest.T) {
		repo := NewMongoMeasurementRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.SetPhoto(ctx, primitive.NewObjectID(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("delete is scoped to the owner", func(mt *mtest.T) {
		repo := NewMongoMeasurementRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		id := primitive.NewObjectID()
		require.NoError(mt, repo.Delete(ctx, id, userID))

		filter := sentFilter(mt)
		assert.Equal(mt, id, filter.Lookup("_id").ObjectID())
		assert.Equal(mt, userID, filter.Lookup("userId").ObjectID())
	})

	mt.Run("create requires an owner", func(mt *mtest.T) {
		repo := NewMongoMeasurementRepository(mt.DB)
		_, err := repo.Create(ctx, &domain.BodyMeasurement{Date: "2024-05-01"})
		assert.Error(mt, err)
	})
}
