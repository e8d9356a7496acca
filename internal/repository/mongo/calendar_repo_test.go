package mongo

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const calendarNS = "test.calendars"

func TestCalendarRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	userID := primitive.NewObjectID()

	mt.Run("get normalizes stored document", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, calendarNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: userID},
			{Key: "plans", Value: bson.A{
				bson.D{{Key: "id", Value: "p1"}, {Key: "name", Value: "Push"}, {Key: "color", Value: "red"}, {Key: "exercises", Value: bson.A{"e1"}}},
			}},
			{Key: "scheduledWorkouts", Value: bson.D{
				{Key: "2024-06-01", Value: bson.A{"p1", "p1"}},
				{Key: "2024-06-02", Value: bson.A{}},
			}},
			{Key: "updatedAt", Value: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		}))

		doc, err := repo.Get(ctx, userID)
		require.NoError(mt, err)
		assert.Equal(mt, userID, doc.UserID)
		require.Len(mt, doc.Plans, 1)
		assert.Equal(mt, "Push", doc.Plans[0].Name)
		assert.Equal(mt, map[string][]string{"2024-06-01": {"p1"}}, doc.ScheduledWorkouts)
	})

	mt.Run("get missing calendar", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, calendarNS, mtest.FirstBatch))

		_, err := repo.Get(ctx, userID)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("replace", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		cal := domain.UpsertPlan(domain.NewCalendarData(), domain.WorkoutPlan{ID: "p1", Name: "Push"})
		assert.NoError(mt, repo.Replace(ctx, userID, cal))
	})

	mt.Run("replace requires user", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		assert.Error(mt, repo.Replace(ctx, primitive.NilObjectID, domain.NewCalendarData()))
	})

	mt.Run("add to date", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		assert.NoError(mt, repo.AddToDate(ctx, userID, "p1", "2024-06-01"))
	})

	mt.Run("add unknown plan", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		assert.ErrorIs(mt, repo.AddToDate(ctx, userID, "ghost", "2024-06-01"), repository.ErrNotFound)
	})

	mt.Run("remove from date", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		assert.NoError(mt, repo.RemoveFromDate(ctx, userID, "p1", "2024-06-01"))
	})

	mt.Run("remove without calendar", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		assert.ErrorIs(mt, repo.RemoveFromDate(ctx, userID, "p1", "2024-06-01"), repository.ErrNotFound)
	})

	mt.Run("upsert existing plan sets it in place", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.UpsertPlan(ctx, userID, domain.WorkoutPlan{ID: "p1", Name: "Push v2"}))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		update := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.Equal(mt, "p1", update.Lookup("q", "plans.id").StringValue())
		_, err := update.LookupErr("u", "$set", "plans.$")
		assert.NoError(mt, err, "the plan is set positionally, the schedule is not rewritten")
		_, err = update.LookupErr("u", "$set", "scheduledWorkouts")
		assert.Error(mt, err)
	})

	mt.Run("upsert new plan pushes it", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		require.NoError(mt, repo.UpsertPlan(ctx, userID, domain.WorkoutPlan{ID: "p2", Name: "Legs"}))

		mt.GetStartedEvent()
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		update := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.Equal(mt, "Legs", update.Lookup("u", "$push", "plans", "name").StringValue())
		assert.True(mt, update.Lookup("upsert").Boolean())
	})

	mt.Run("upsert retries after a concurrent insert", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		assert.NoError(mt, repo.UpsertPlan(ctx, userID, domain.WorkoutPlan{ID: "p2", Name: "Legs"}))
	})

	mt.Run("delete plan is one pipeline update", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.DeletePlan(ctx, userID, "p1"))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		update := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.Equal(mt, "p1", update.Lookup("q", "plans.id").StringValue())
		stages, ok := update.Lookup("u").ArrayOK()
		require.True(mt, ok, "expected an update pipeline")
		values, err := stages.Values()
		require.NoError(mt, err)
		assert.Len(mt, values, 1)
	})

	mt.Run("delete unknown plan", func(mt *mtest.T) {
		repo := NewMongoCalendarRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		assert.ErrorIs(mt, repo.DeletePlan(ctx, userID, "ghost"), repository.ErrNotFound)
	})
}
