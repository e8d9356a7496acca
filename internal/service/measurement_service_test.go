package service

import (
	"alcyxob/workout-tracker/internal/repository/memory"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func float(v float64) *float64 { return &v }

func newMeasurementFixture(t *testing.T) (MeasurementService, *fakeStorage, primitive.ObjectID, primitive.ObjectID) {
	t.Helper()
	files := newFakeStorage()
	svc := NewMeasurementService(memory.NewMeasurementRepository(), memory.NewPhotoRepository(), files, time.Minute)
	userID := primitive.NewObjectID()
	m, err := svc.CreateMeasurement(context.Background(), userID, MeasurementInput{Date: "2024-06-01", WeightKg: float(82.5)})
	require.NoError(t, err)
	return svc, files, userID, m.ID
}

func TestMeasurementService_CreateValidation(t *testing.T) {
	svc, _, userID, _ := newMeasurementFixture(t)
	ctx := context.Background()

	_, err := svc.CreateMeasurement(ctx, userID, MeasurementInput{Date: "2024-06-02"})
	assert.ErrorIs(t, err, ErrInvalidMeasurement)
	_, err = svc.CreateMeasurement(ctx, userID, MeasurementInput{Date: "2024-06-02", WaistCm: float(-1)})
	assert.ErrorIs(t, err, ErrInvalidMeasurement)
	_, err = svc.CreateMeasurement(ctx, userID, MeasurementInput{Date: "2024-06-02", BodyFatPct: float(100)})
	assert.ErrorIs(t, err, ErrInvalidMeasurement)
	_, err = svc.CreateMeasurement(ctx, userID, MeasurementInput{Date: "June", WeightKg: float(80)})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.CreateMeasurement(ctx, userID, MeasurementInput{Date: "2024-06-08", WeightKg: float(81.9), WaistCm: float(84)})
	require.NoError(t, err)
	list, err := svc.ListMeasurements(ctx, userID, "", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-06-08", list[0].Date, "newest first")
}

func TestMeasurementService_PhotoFlow(t *testing.T) {
	svc, files, userID, measurementID := newMeasurementFixture(t)
	ctx := context.Background()

	_, err := svc.RequestPhotoUpload(ctx, userID, measurementID, "video/mp4")
	assert.ErrorIs(t, err, ErrUnsupportedPhotoType)

	upload, err := svc.RequestPhotoUpload(ctx, userID, measurementID, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.ObjectKey, "photos/"+userID.Hex()+"/"+measurementID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(upload.ObjectKey, ".jpg"))
	assert.Contains(t, upload.UploadURL, upload.ObjectKey)

	_, err = svc.ConfirmPhotoUpload(ctx, userID, measurementID, upload.ObjectKey, "front.jpg")
	assert.ErrorIs(t, err, ErrPhotoNotUploaded)

	files.put(upload.ObjectKey, "image/jpeg", 2048)
	photo, err := svc.ConfirmPhotoUpload(ctx, userID, measurementID, upload.ObjectKey, "front.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), photo.Size)
	assert.Equal(t, "image/jpeg", photo.ContentType)

	url, err := svc.GetPhotoURL(ctx, userID, measurementID)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.test/download/"+upload.ObjectKey, url)

	// a second photo replaces the first one
	second, err := svc.RequestPhotoUpload(ctx, userID, measurementID, "image/png")
	require.NoError(t, err)
	files.put(second.ObjectKey, "image/png", 4096)
	_, err = svc.ConfirmPhotoUpload(ctx, userID, measurementID, second.ObjectKey, "side.png")
	require.NoError(t, err)
	assert.Equal(t, []string{upload.ObjectKey}, files.deleted)

	require.NoError(t, svc.DeleteMeasurement(ctx, userID, measurementID))
	assert.Equal(t, []string{upload.ObjectKey, second.ObjectKey}, files.deleted)
	_, err = svc.GetPhotoURL(ctx, userID, measurementID)
	assert.ErrorIs(t, err, ErrMeasurementNotFound)
}

func TestMeasurementService_PhotoOwnership(t *testing.T) {
	svc, files, userID, measurementID := newMeasurementFixture(t)
	ctx := context.Background()
	stranger := primitive.NewObjectID()

	_, err := svc.RequestPhotoUpload(ctx, stranger, measurementID, "image/jpeg")
	assert.ErrorIs(t, err, ErrMeasurementNotFound)

	upload, err := svc.RequestPhotoUpload(ctx, userID, measurementID, "image/jpeg")
	require.NoError(t, err)
	files.put(upload.ObjectKey, "image/jpeg", 10)

	_, err = svc.ConfirmPhotoUpload(ctx, stranger, measurementID, upload.ObjectKey, "x.jpg")
	assert.ErrorIs(t, err, ErrPhotoKeyMismatch)

	_, err = svc.GetPhotoURL(ctx, userID, measurementID)
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestMeasurementService_PhotosDisabled(t *testing.T) {
	svc := NewMeasurementService(memory.NewMeasurementRepository(), memory.NewPhotoRepository(), nil, 0)
	_, err := svc.RequestPhotoUpload(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "image/jpeg")
	assert.ErrorIs(t, err, ErrPhotoStorageDisabled)
}
