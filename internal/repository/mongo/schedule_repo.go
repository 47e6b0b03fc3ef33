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

const scheduledItemCollectionName = "scheduled_items"

// mongoScheduledItemRepository implements repository.ScheduledItemRepository.
type mongoScheduledItemRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduledItemRepository creates a new ScheduledItem repository
// backed by MongoDB.
func NewMongoScheduledItemRepository(db *mongo.Database) repository.ScheduledItemRepository {
	return &mongoScheduledItemRepository{
		collection: db.Collection(scheduledItemCollectionName),
	}
}

// CreateBulk inserts an expanded calendar with one ordered InsertMany. The
// enrollment service runs it in the same transaction as the prehab insert; a
// partial calendar would corrupt everything the patient sees.
func (r *mongoScheduledItemRepository) CreateBulk(ctx context.Context, items []domain.ScheduledItem) error {
	if len(items) == 0 {
		return errors.New("bulk insert requires at least one scheduled item")
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(items))
	for i := range items {
		if items[i].PrehabID == primitive.NilObjectID {
			return errors.New("scheduled item requires prehabId")
		}
		items[i].ID = primitive.NewObjectID()
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
		if items[i].Status == "" {
			items[i].Status = domain.ItemPending
		}
		docs = append(docs, items[i])
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a scheduled item by its ID.
func (r *mongoScheduledItemRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledItem, error) {
	var item domain.ScheduledItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListByPrehabID retrieves all items of a prehab, newest first by insertion
// sequence.
func (r *mongoScheduledItemRepository) ListByPrehabID(ctx context.Context, prehabID primitive.ObjectID) ([]domain.ScheduledItem, error) {
	return r.find(ctx, bson.M{"prehabId": prehabID})
}

// ListAll retrieves every scheduled item, newest first. Admin listings only.
func (r *mongoScheduledItemRepository) ListAll(ctx context.Context) ([]domain.ScheduledItem, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoScheduledItemRepository) find(ctx context.Context, filter bson.M) ([]domain.ScheduledItem, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "prehabId", Value: -1}, {Key: "seq", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []domain.ScheduledItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkDone applies the patient's completion report. The filter conditions
// the write on the item still being pending, which makes the
// check-then-act transition atomic at the document level: a concurrent
// completion that slipped in between the caller's read and this write shows
// up as ErrStaleState, never as a second write.
func (r *mongoScheduledItemRepository) MarkDone(ctx context.Context, id primitive.ObjectID, params repository.MarkDoneParams) error {
	if !params.Status.Terminal() {
		return errors.New("mark done requires a terminal status")
	}

	set := bson.M{
		"status":       params.Status,
		"finishedDate": params.FinishedDate,
		"wasDifficult": params.WasDifficult,
		"patientNotes": params.PatientNotes,
		"seenByDoctor": params.SeenByDoctor,
		"updatedAt":    time.Now().UTC(),
	}
	if params.ActualRepetitions != nil {
		set["actualRepetitions"] = *params.ActualRepetitions
	}

	return r.conditionalUpdate(ctx, id, bson.M{"$set": set})
}

// MarkSeen applies the doctor's review flags, guarded on the item not yet
// being finished. The bulk path below deliberately has no such guard.
func (r *mongoScheduledItemRepository) MarkSeen(ctx context.Context, id primitive.ObjectID, seen bool, doctorNotes string) error {
	update := bson.M{"$set": bson.M{
		"seenByDoctor": seen,
		"doctorNotes":  doctorNotes,
		"updatedAt":    time.Now().UTC(),
	}}
	return r.conditionalUpdate(ctx, id, update)
}

// conditionalUpdate applies update only while the item is still pending and
// maps a failed guard on an existing document to ErrStaleState.
func (r *mongoScheduledItemRepository) conditionalUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	filter := bson.M{"_id": id, "status": domain.ItemPending}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return repository.ErrStaleState
	}
	return nil
}

// MarkSeenBulk flips seenByDoctor on every item of the prehab, including
// already-finished ones. Administrative escape hatch; callers rely on the
// missing per-item guard, so keep this path separate from MarkSeen.
func (r *mongoScheduledItemRepository) MarkSeenBulk(ctx context.Context, prehabID primitive.ObjectID) (int64, error) {
	update := bson.M{"$set": bson.M{
		"seenByDoctor": true,
		"updatedAt":    time.Now().UTC(),
	}}

	result, err := r.collection.UpdateMany(ctx, bson.M{"prehabId": prehabID}, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// EnsureScheduledItemIndexes creates necessary indexes for the
// scheduled_items collection.
func EnsureScheduledItemIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "prehabId", Value: 1}, {Key: "seq", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "prehabId", Value: 1}, {Key: "weekNumber", Value: 1}, {Key: "dayNumber", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "seenByDoctor", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
