// internal/repository/mongo/calendar_repo.go
package mongo

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const calendarCollectionName = "calendars"

// mongoCalendarRepository implements repository.CalendarRepository. Each user has
// one document keyed by the user ID.
type mongoCalendarRepository struct {
	collection *mongo.Collection
}

// NewMongoCalendarRepository creates a new Calendar repository.
func NewMongoCalendarRepository(db *mongo.Database) repository.CalendarRepository {
	return &mongoCalendarRepository{
		collection: db.Collection(calendarCollectionName),
	}
}

func scheduleField(dateKey string) string {
	return "scheduledWorkouts." + dateKey
}

// Get retrieves the user's calendar document.
func (r *mongoCalendarRepository) Get(ctx context.Context, userID primitive.ObjectID) (*domain.CalendarDocument, error) {
	var doc domain.CalendarDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	doc.CalendarData = domain.Normalize(doc.CalendarData)
	return &doc, nil
}

// Replace upserts the whole calendar.
func (r *mongoCalendarRepository) Replace(ctx context.Context, userID primitive.ObjectID, cal domain.CalendarData) error {
	if userID == primitive.NilObjectID {
		return errors.New("calendar requires a user ID")
	}
	doc := domain.CalendarDocument{
		UserID:       userID,
		CalendarData: domain.Normalize(cal),
		UpdatedAt:    time.Now().UTC(),
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": userID}, doc, options.Replace().SetUpsert(true))
	return err
}

// AddToDate appends planID to the date's list with $addToSet, so concurrent
// schedules of the same plan on the same day collapse to one entry and distinct
// plans keep server arrival order. The filter also requires the plan to exist.
func (r *mongoCalendarRepository) AddToDate(ctx context.Context, userID primitive.ObjectID, planID, dateKey string) error {
	filter := bson.M{"_id": userID, "plans.id": planID}
	update := bson.M{
		"$addToSet": bson.M{scheduleField(dateKey): planID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveFromDate pulls planID from the date's list, then unsets the date if the
// list is empty.
func (r *mongoCalendarRepository) RemoveFromDate(ctx context.Context, userID primitive.ObjectID, planID, dateKey string) error {
	field := scheduleField(dateKey)
	update := bson.M{
		"$pull": bson.M{field: planID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	emptyFilter := bson.M{"_id": userID, field: bson.M{"$size": 0}}
	if _, err := r.collection.UpdateOne(ctx, emptyFilter, bson.M{"$unset": bson.M{field: ""}}); err != nil {
		return errors.Join(repository.ErrUpdateFailed, err)
	}
	return nil
}

// UpsertPlan sets the plan in place through the positional operator, or pushes
// it when no plan has its ID. Neither update touches the schedule.
func (r *mongoCalendarRepository) UpsertPlan(ctx context.Context, userID primitive.ObjectID, plan domain.WorkoutPlan) error {
	if userID == primitive.NilObjectID {
		return errors.New("calendar requires a user ID")
	}
	if plan.Exercises == nil {
		plan.Exercises = []string{}
	}

	// a concurrent push of the same plan makes the upsert collide on _id; the
	// second attempt then finds the plan and sets it
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		result, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": userID, "plans.id": plan.ID},
			bson.M{"$set": bson.M{"plans.$": plan, "updatedAt": now}},
		)
		if err != nil {
			return err
		}
		if result.MatchedCount > 0 {
			return nil
		}

		_, err = r.collection.UpdateOne(ctx,
			bson.M{"_id": userID, "plans.id": bson.M{"$ne": plan.ID}},
			bson.M{
				"$push":        bson.M{"plans": plan},
				"$set":         bson.M{"updatedAt": now},
				"$setOnInsert": bson.M{"scheduledWorkouts": bson.M{}},
			},
			options.Update().SetUpsert(true),
		)
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		return err
	}
	return repository.ErrUpdateFailed
}

// DeletePlan removes the plan and filters its ID out of every scheduled day
// with a single pipeline update, dropping days that end up empty.
func (r *mongoCalendarRepository) DeletePlan(ctx context.Context, userID primitive.ObjectID, planID string) error {
	withoutPlan := bson.M{"$filter": bson.M{
		"input": "$$day.v",
		"as":    "id",
		"cond":  bson.M{"$ne": bson.A{"$$id", planID}},
	}}
	days := bson.M{"$map": bson.M{
		"input": bson.M{"$objectToArray": bson.M{"$ifNull": bson.A{"$scheduledWorkouts", bson.M{}}}},
		"as":    "day",
		"in":    bson.M{"k": "$$day.k", "v": withoutPlan},
	}}
	nonEmptyDays := bson.M{"$filter": bson.M{
		"input": days,
		"as":    "day",
		"cond":  bson.M{"$gt": bson.A{bson.M{"$size": "$$day.v"}, 0}},
	}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "plans", Value: bson.M{"$filter": bson.M{
				"input": "$plans",
				"as":    "plan",
				"cond":  bson.M{"$ne": bson.A{"$$plan.id", planID}},
			}}},
			{Key: "scheduledWorkouts", Value: bson.M{"$arrayToObject": nonEmptyDays}},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID, "plans.id": planID}, pipeline)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCalendarIndexes creates necessary indexes. The _id index covers lookups.
func EnsureCalendarIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updatedAt", Value: -1}},
			Options: options.Index(),
		},
	})
}
