package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	recordsCollection  = "attendance"
	countersCollection = "counters"
	recordsSequence    = "attendance"
)

// document is the BSON shape of a record. The numeric id doubles as _id.
type document struct {
	ID            int64     `bson:"_id"`
	DateTime      time.Time `bson:"dateTime"`
	Name          string    `bson:"name"`
	Company       string    `bson:"company"`
	Supervisor    string    `bson:"supervisor"`
	SignatureData string    `bson:"signatureData"`
}

// MongoRepository persists attendance records as MongoDB documents.
type MongoRepository struct {
	db       *mongo.Database
	records  *mongo.Collection
	counters *mongo.Collection

	indexMu sync.Mutex
	indexed bool
}

// NewMongoRepository creates a repository over db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		db:       db,
		records:  db.Collection(recordsCollection),
		counters: db.Collection(countersCollection),
	}
}

// Migrate creates the dateTime index.
func (r *MongoRepository) Migrate(ctx context.Context) error {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()
	return r.migrate(ctx)
}

func (r *MongoRepository) migrate(ctx context.Context) error {
	_, err := r.records.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "dateTime", Value: -1}},
	})
	if err != nil {
		return errors.Wrap(err, "create dateTime index")
	}
	r.indexed = true
	return nil
}

// ensureIndex creates the index on first use when startup could not.
func (r *MongoRepository) ensureIndex(ctx context.Context) error {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()
	if r.indexed {
		return nil
	}
	return r.migrate(ctx)
}

// Ping verifies the server is reachable and the index exists.
func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.db.Client().Ping(ctx, nil); err != nil {
		return err
	}
	return r.ensureIndex(ctx)
}

// Add inserts rec. A zero id takes the next value of the attendance sequence.
func (r *MongoRepository) Add(ctx context.Context, rec Record) (Record, error) {
	if err := r.ensureIndex(ctx); err != nil {
		return Record{}, err
	}
	if rec.ID == 0 {
		id, err := r.nextID(ctx)
		if err != nil {
			return Record{}, err
		}
		rec.ID = id
	}
	if _, err := r.records.InsertOne(ctx, toDocument(rec)); err != nil {
		return Record{}, errors.Wrap(err, "insert attendance document")
	}
	return rec, nil
}

// MaxID returns the highest stored id, or 0 when the collection is empty.
func (r *MongoRepository) MaxID(ctx context.Context) (int64, error) {
	var d document
	err := r.records.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read max attendance id")
	}
	return d.ID, nil
}

// ListAll returns all records, newest first.
func (r *MongoRepository) ListAll(ctx context.Context) ([]Record, error) {
	return r.find(ctx, bson.M{})
}

// ListByDate returns the records inside day, newest first.
func (r *MongoRepository) ListByDate(ctx context.Context, day Day) ([]Record, error) {
	return r.find(ctx, bson.M{"dateTime": bson.M{"$gte": day.Start.UTC(), "$lt": day.End.UTC()}})
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]Record, error) {
	if err := r.ensureIndex(ctx); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "dateTime", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.records.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find attendance documents")
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode attendance documents")
	}
	res := make([]Record, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.record())
	}
	return res, nil
}

func (r *MongoRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": recordsSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, errors.Wrap(err, "advance attendance sequence")
	}
	return counter.Seq, nil
}

func toDocument(rec Record) document {
	return document{
		ID:            rec.ID,
		DateTime:      rec.DateTime.UTC(),
		Name:          rec.Name,
		Company:       rec.Company,
		Supervisor:    rec.Supervisor,
		SignatureData: rec.SignatureData,
	}
}

func (d document) record() Record {
	return Record{
		ID:            d.ID,
		DateTime:      d.DateTime,
		Name:          d.Name,
		Company:       d.Company,
		Supervisor:    d.Supervisor,
		SignatureData: d.SignatureData,
	}
}
