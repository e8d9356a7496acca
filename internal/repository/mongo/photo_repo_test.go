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

func TestPhotoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := "test." + photoCollectionName

	mt.Run("get by measurement", func(mt *mtest.T) {
		repo := NewMongoPhotoRepository(mt.DB)
		measurementID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "measurementId", Value: measurementID},
			{Key: "s3ObjectKey", Value: "progress/u1/a.jpg"},
			{Key: "contentType", Value: "image/jpeg"},
		}))

		photo, err := repo.GetByMeasurementID(ctx, measurementID)
		require.NoError(mt, err)
		assert.Equal(mt, "progress/u1/a.jpg", photo.S3ObjectKey)
		assert.Equal(mt, measurementID, sentFilter(mt).Lookup("measurementId").ObjectID())
	})

	mt.Run("get missing photo", func(mt *mtest.T) {
		repo := NewMongoPhotoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("second photo for a measurement", func(mt *mtest.T) {
		repo := NewMongoPhotoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		_, err := repo.Create(ctx, &domain.Photo{
			MeasurementID: primitive.NewObjectID(),
			UserID:        primitive.NewObjectID(),
			S3ObjectKey:   "progress/u1/b.jpg",
		})
		assert.ErrorIs(mt, err, repository.ErrDuplicate)
	})

	mt.Run("delete missing photo", func(mt *mtest.T) {
		repo := NewMongoPhotoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(ctx, primitive.NewObjectID()), repository.ErrNotFound)
	})
}
