package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"alcyxob/workout-tracker/internal/storage"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrMeasurementNotFound     = errors.New("measurement not found")
	ErrInvalidMeasurement      = errors.New("invalid measurement")
	ErrPhotoNotFound           = errors.New("photo not found")
	ErrUnsupportedPhotoType    = errors.New("photo must be a jpeg, png or webp image")
	ErrPhotoKeyMismatch        = errors.New("object key does not belong to this measurement")
	ErrPhotoNotUploaded        = errors.New("photo has not been uploaded")
	ErrUploadURLError          = errors.New("failed to generate upload URL")
	ErrDownloadURLError        = errors.New("failed to generate download URL")
	ErrPhotoStorageDisabled    = errors.New("photo storage is not configured")
	ErrPhotoConfirmationFailed = errors.New("failed to confirm photo upload")
)

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// MeasurementInput is a body measurement entry; nil values were not measured.
type MeasurementInput struct {
	Date       string
	WeightKg   *float64
	BodyFatPct *float64
	WaistCm    *float64
	ChestCm    *float64
	HipsCm     *float64
	ArmCm      *float64
	ThighCm    *float64
	Notes      string
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"` // reported back on confirm
	ExpiresAt time.Time `json:"expiresAt"`
}

type MeasurementService interface {
	CreateMeasurement(ctx context.Context, userID primitive.ObjectID, input MeasurementInput) (*domain.BodyMeasurement, error)
	ListMeasurements(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.BodyMeasurement, error)
	DeleteMeasurement(ctx context.Context, userID, measurementID primitive.ObjectID) error

	// Photo upload goes straight to object storage: request a URL, PUT the file, confirm.
	RequestPhotoUpload(ctx context.Context, userID, measurementID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmPhotoUpload(ctx context.Context, userID, measurementID primitive.ObjectID, objectKey, fileName string) (*domain.Photo, error)
	GetPhotoURL(ctx context.Context, userID, measurementID primitive.ObjectID) (string, error)
}

type measurementService struct {
	measurementRepo repository.MeasurementRepository
	photoRepo       repository.PhotoRepository
	fileStorage     storage.FileStorage
	presignExpiry   time.Duration
}

// NewMeasurementService creates the service. fileStorage may be nil, which
// disables photos.
func NewMeasurementService(
	measurementRepo repository.MeasurementRepository,
	photoRepo repository.PhotoRepository,
	fileStorage storage.FileStorage,
	presignExpiry time.Duration,
) MeasurementService {
	if presignExpiry <= 0 {
		presignExpiry = storage.DefaultPresignedURLExpiry
	}
	return &measurementService{
		measurementRepo: measurementRepo,
		photoRepo:       photoRepo,
		fileStorage:     fileStorage,
		presignExpiry:   presignExpiry,
	}
}

func validateMeasurement(input MeasurementInput) error {
	if !domain.ValidDateKey(input.Date) {
		return ErrInvalidDate
	}
	values := []*float64{input.WeightKg, input.BodyFatPct, input.WaistCm, input.ChestCm, input.HipsCm, input.ArmCm, input.ThighCm}
	measured := false
	for _, v := range values {
		if v == nil {
			continue
		}
		if *v <= 0 {
			return fmt.Errorf("%w: values must be positive", ErrInvalidMeasurement)
		}
		measured = true
	}
	if !measured {
		return fmt.Errorf("%w: at least one value is required", ErrInvalidMeasurement)
	}
	if input.BodyFatPct != nil && *input.BodyFatPct >= 100 {
		return fmt.Errorf("%w: body fat must be below 100%%", ErrInvalidMeasurement)
	}
	return nil
}

func (s *measurementService) CreateMeasurement(ctx context.Context, userID primitive.ObjectID, input MeasurementInput) (*domain.BodyMeasurement, error) {
	if err := validateMeasurement(input); err != nil {
		return nil, err
	}
	m := &domain.BodyMeasurement{
		UserID:     userID,
		Date:       input.Date,
		WeightKg:   input.WeightKg,
		BodyFatPct: input.BodyFatPct,
		WaistCm:    input.WaistCm,
		ChestCm:    input.ChestCm,
		HipsCm:     input.HipsCm,
		ArmCm:      input.ArmCm,
		ThighCm:    input.ThighCm,
		Notes:      input.Notes,
	}
	id, err := s.measurementRepo.Create(ctx, m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	return m, nil
}

func (s *measurementService) ListMeasurements(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.BodyMeasurement, error) {
	for _, d := range []string{from, to} {
		if d != "" && !domain.ValidDateKey(d) {
			return nil, ErrInvalidDate
		}
	}
	return s.measurementRepo.ListByUser(ctx, userID, from, to)
}

func (s *measurementService) owned(ctx context.Context, userID, measurementID primitive.ObjectID) (*domain.BodyMeasurement, error) {
	m, err := s.measurementRepo.GetByID(ctx, measurementID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMeasurementNotFound
		}
		return nil, err
	}
	if m.UserID != userID {
		return nil, ErrMeasurementNotFound
	}
	return m, nil
}

// DeleteMeasurement removes the entry together with its photo.
func (s *measurementService) DeleteMeasurement(ctx context.Context, userID, measurementID primitive.ObjectID) error {
	m, err := s.owned(ctx, userID, measurementID)
	if err != nil {
		return err
	}
	if m.PhotoID != nil {
		s.removePhoto(ctx, *m.PhotoID)
	}
	if err := s.measurementRepo.Delete(ctx, measurementID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMeasurementNotFound
		}
		return err
	}
	return nil
}

func photoKeyPrefix(userID, measurementID primitive.ObjectID) string {
	return path.Join("photos", userID.Hex(), measurementID.Hex()) + "/"
}

func (s *measurementService) RequestPhotoUpload(ctx context.Context, userID, measurementID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if s.fileStorage == nil {
		return nil, ErrPhotoStorageDisabled
	}
	ext, ok := photoExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, ErrUnsupportedPhotoType
	}
	if _, err := s.owned(ctx, userID, measurementID); err != nil {
		return nil, err
	}

	objectKey := photoKeyPrefix(userID, measurementID) + uuid.NewString() + "." + ext
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, strings.ToLower(contentType), s.presignExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &UploadURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().UTC().Add(s.presignExpiry),
	}, nil
}

// ConfirmPhotoUpload records the uploaded object and attaches it to the
// measurement, replacing any previous photo.
func (s *measurementService) ConfirmPhotoUpload(ctx context.Context, userID, measurementID primitive.ObjectID, objectKey, fileName string) (*domain.Photo, error) {
	if s.fileStorage == nil {
		return nil, ErrPhotoStorageDisabled
	}
	if !strings.HasPrefix(objectKey, photoKeyPrefix(userID, measurementID)) {
		return nil, ErrPhotoKeyMismatch
	}
	m, err := s.owned(ctx, userID, measurementID)
	if err != nil {
		return nil, err
	}

	meta, err := s.fileStorage.StatObject(ctx, objectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrPhotoNotUploaded
		}
		return nil, err
	}

	if m.PhotoID != nil {
		s.removePhoto(ctx, *m.PhotoID)
	}

	photo := &domain.Photo{
		MeasurementID: measurementID,
		UserID:        userID,
		S3ObjectKey:   objectKey,
		FileName:      fileName,
		ContentType:   meta.ContentType,
		Size:          meta.Size,
	}
	photoID, err := s.photoRepo.Create(ctx, photo)
	if err != nil {
		log.Errorf("failed to save photo metadata for measurement %s: %s", measurementID.Hex(), err)
		return nil, ErrPhotoConfirmationFailed
	}
	photo.ID = photoID

	if err := s.measurementRepo.SetPhoto(ctx, measurementID, photoID); err != nil {
		log.Errorf("failed to link photo %s to measurement %s: %s", photoID.Hex(), measurementID.Hex(), err)
		if delErr := s.photoRepo.Delete(ctx, photoID); delErr != nil {
			log.Errorf("failed to roll back photo metadata %s: %s", photoID.Hex(), delErr)
		}
		return nil, ErrPhotoConfirmationFailed
	}
	return photo, nil
}

func (s *measurementService) GetPhotoURL(ctx context.Context, userID, measurementID primitive.ObjectID) (string, error) {
	if s.fileStorage == nil {
		return "", ErrPhotoStorageDisabled
	}
	if _, err := s.owned(ctx, userID, measurementID); err != nil {
		return "", err
	}
	photo, err := s.photoRepo.GetByMeasurementID(ctx, measurementID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrPhotoNotFound
		}
		return "", err
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, photo.S3ObjectKey, s.presignExpiry)
	if err != nil {
		return "", ErrDownloadURLError
	}
	return url, nil
}

// removePhoto deletes the object and its metadata. Failures are logged; an
// orphaned object is harmless.
func (s *measurementService) removePhoto(ctx context.Context, photoID primitive.ObjectID) {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Errorf("failed to load photo %s: %s", photoID.Hex(), err)
		}
		return
	}
	if s.fileStorage != nil {
		if err := s.fileStorage.DeleteObject(ctx, photo.S3ObjectKey); err != nil {
			log.Errorf("failed to delete photo object %s: %s", photo.S3ObjectKey, err)
		}
	}
	if err := s.photoRepo.Delete(ctx, photoID); err != nil {
		log.Errorf("failed to delete photo metadata %s: %s", photoID.Hex(), err)
	}
}
