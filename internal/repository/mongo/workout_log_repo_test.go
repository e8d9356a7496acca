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

func TestWorkoutLogRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	userID := primitive.NewObjectID()
	ns := "test." + workoutLogCollectionName

	mt.Run("get missing log", func(mt *mtest.T) {
		repo := NewMongoWorkoutLogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("list by user filters owner and dates", func(mt *mtest.T) {
		repo := NewMongoWorkoutLogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "userId", Value: userID}, {Key: "date", Value: "2024-05-02"}},
		))

		logs, err := repo.ListByUser(ctx, userID, "2024-05-01", "2024-05-31")
		require.NoError(mt, err)
		require.Len(mt, logs, 1)
		assert.Equal(mt, "2024-05-02", logs[0].Date)

		filter := sentFilter(mt)
		assert.Equal(mt, userID, filter.Lookup("userId").ObjectID())
		assert.Equal(mt, "2024-05-01", filter.Lookup("date", "$gte").StringValue())
		assert.Equal(mt, "2024-05-31", filter.Lookup("date", "$lte").StringValue())
	})

	mt.Run("open range has no date filter", func(mt *mtest.T) {
		repo := NewMongoWorkoutLogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		logs, err := repo.ListByUser(ctx, userID, "", "")
		require.NoError(mt, err)
		assert.Empty(mt, logs)

		_, err = sentFilter(mt).LookupErr("date")
		assert.Error(mt, err)
	})

	mt.Run("list by exercise", func(mt *mtest.T) {
		repo := NewMongoWorkoutLogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		exerciseID := primitive.NewObjectID()
		_, err := repo.ListByExercise(ctx, userID, exerciseID)
		require.NoError(mt, err)

		filter := sentFilter(mt)
		assert.Equal(mt, userID, filter.Lookup("userId").ObjectID())
		assert.Equal(mt, exerciseID, filter.Lookup("entries.exerciseId").ObjectID())
	})

	mt.Run("delete of a foreign log", func(mt *mtest.T) {
		repo := NewMongoWorkoutLogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(ctx, primitive.NewObjectID(), userID), repository.ErrNotFound)
		assert.Equal(mt, userID, sentFilter(mt).Lookup("userId").ObjectID())
	})

	mt.Run("create requires a date", func(mt *mtest.T) {
		repo := NewMongoWorkoutLogRepository(mt.DB)
		_, err := repo.Create(ctx, &domain.WorkoutLog{UserID: userID})
		assert.Error(mt, err)
	})
}
