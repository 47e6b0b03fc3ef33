package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/repository"
)

const prehabCollectionName = "prehabs"

// mongoPrehabRepository implements repository.PrehabRepository.
type mongoPrehabRepository struct {
	collection *mongo.Collection
}

// NewMongoPrehabRepository creates a new Prehab repository backed by MongoDB.
func NewMongoPrehabRepository(db *mongo.Database) repository.PrehabRepository {
	return &mongoPrehabRepository{
		collection: db.Collection(prehabCollectionName),
	}
}

// Create inserts a new prehab enrollment.
func (r *mongoPrehabRepository) Create(ctx context.Context, prehab *domain.Prehab) (primitive.ObjectID, error) {
	if prehab.PatientID == primitive.NilObjectID || prehab.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("prehab requires patientId and createdBy")
	}

	prehab.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	prehab.CreatedAt = now
	prehab.UpdatedAt = now
	if prehab.Status == "" {
		prehab.Status = domain.PrehabPending
	}

	result, err := r.collection.InsertOne(ctx, prehab)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted prehab ID")
	}
	return insertedID, nil
}

// GetByID retrieves a prehab by its ID.
func (r *mongoPrehabRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Prehab, error) {
	var prehab domain.Prehab
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&prehab)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &prehab, nil
}

// GetCurrentByPatientID retrieves the patient's most recent enrollment.
func (r *mongoPrehabRepository) GetCurrentByPatientID(ctx context.Context, patientID primitive.ObjectID) (*domain.Prehab, error) {
	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var prehab domain.Prehab
	err := r.collection.FindOne(ctx, bson.M{"patientId": patientID}, findOptions).Decode(&prehab)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &prehab, nil
}

// ListByDoctorID retrieves all enrollments created by a doctor, newest first.
func (r *mongoPrehabRepository) ListByDoctorID(ctx context.Context, doctorID primitive.ObjectID) ([]domain.Prehab, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"createdBy": doctorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prehabs []domain.Prehab
	if err = cursor.All(ctx, &prehabs); err != nil {
		return nil, err
	}
	return prehabs, nil
}

// UpdateStatus performs the status transition from -> to as a conditional
// update, so two racing transitions cannot both win.
func (r *mongoPrehabRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.PrehabStatus) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{
		"status":    to,
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing prehab from one whose status moved on.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return repository.ErrStaleState
	}
	return nil
}

// EnsurePrehabIndexes creates necessary indexes for the prehabs collection.
func EnsurePrehabIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "patientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
