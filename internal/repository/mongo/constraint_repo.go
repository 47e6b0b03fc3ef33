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

const constraintCollectionName = "constraint_types"

// mongoConstraintTypeRepository implements repository.ConstraintTypeRepository.
type mongoConstraintTypeRepository struct {
	collection *mongo.Collection
}

// NewMongoConstraintTypeRepository creates a new ConstraintType repository
// backed by MongoDB.
func NewMongoConstraintTypeRepository(db *mongo.Database) repository.ConstraintTypeRepository {
	return &mongoConstraintTypeRepository{
		collection: db.Collection(constraintCollectionName),
	}
}

// Create inserts a new constraint type.
func (r *mongoConstraintTypeRepository) Create(ctx context.Context, ct *domain.ConstraintType) (primitive.ObjectID, error) {
	if ct.Name == "" {
		return primitive.NilObjectID, errors.New("constraint type requires a name")
	}

	ct.ID = primitive.NewObjectID()
	ct.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, ct)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted constraint type ID")
	}
	return insertedID, nil
}

// GetByID retrieves a constraint type by its ID.
func (r *mongoConstraintTypeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ConstraintType, error) {
	var ct domain.ConstraintType
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ct)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &ct, nil
}

// List retrieves all constraint types, alphabetically.
func (r *mongoConstraintTypeRepository) List(ctx context.Context) ([]domain.ConstraintType, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var constraints []domain.ConstraintType
	if err = cursor.All(ctx, &constraints); err != nil {
		return nil, err
	}
	return constraints, nil
}

// EnsureConstraintTypeIndexes creates necessary indexes for the
// constraint_types collection.
func EnsureConstraintTypeIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
