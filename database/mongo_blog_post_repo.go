package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/errs"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoBlogPostRepo keeps blog posts as documents in one collection
type MongoBlogPostRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ BlogPostStore = (*MongoBlogPostRepo)(nil)

// ConnectMongo dials the cluster and waits for the primary to answer
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return client, nil
}

func NewMongoBlogPostRepo(client *mongo.Client, databaseName, collectionName string) *MongoBlogPostRepo {
	return &MongoBlogPostRepo{
		client:     client,
		collection: client.Database(databaseName).Collection(collectionName),
	}
}

// Collection returns the underlying collection for debugging purposes
func (r *MongoBlogPostRepo) Collection() *mongo.Collection {
	return r.collection
}

func (r *MongoBlogPostRepo) FindAll(ctx context.Context) ([]*models.BlogPost, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created", Value: 1}}))
	if err != nil {
		return nil, err
	}
	blogPosts := []*models.BlogPost{}
	if err := cursor.All(ctx, &blogPosts); err != nil {
		return nil, err
	}
	return blogPosts, nil
}

func (r *MongoBlogPostRepo) FindByID(ctx context.Context, id string) (*models.BlogPost, error) {
	var blogPost models.BlogPost
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&blogPost)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &blogPost, nil
}

func (r *MongoBlogPostRepo) Add(ctx context.Context, blogPost *models.BlogPost) error {
	prepareDocument(blogPost)
	_, err := r.collection.InsertOne(ctx, blogPost)
	return duplicateKey(err)
}

func (r *MongoBlogPostRepo) InsertMany(ctx context.Context, blogPosts []*models.BlogPost) error {
	if len(blogPosts) == 0 {
		return nil
	}
	docs := make([]any, 0, len(blogPosts))
	for _, blogPost := range blogPosts {
		prepareDocument(blogPost)
		docs = append(docs, blogPost)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return duplicateKey(err)
}

// Update sets only the fields present in the patch
func (r *MongoBlogPostRepo) Update(ctx context.Context, id string, patch models.BlogPostPatch) error {
	if patch.IsEmpty() {
		_, err := r.FindByID(ctx, id)
		return err
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(patch.Document())})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Delete removes the document with the given id. Unknown ids are not an error.
func (r *MongoBlogPostRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoBlogPostRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.D{})
}

// Drop removes the whole collection
func (r *MongoBlogPostRepo) Drop(ctx context.Context) error {
	return r.collection.Drop(ctx)
}

func (r *MongoBlogPostRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// prepareDocument assigns the identity fields before insertion. BSON dates
// hold milliseconds, so Created is truncated to match what is read back.
func prepareDocument(blogPost *models.BlogPost) {
	if blogPost.ID == "" {
		blogPost.ID = primitive.NewObjectID().Hex()
	}
	if blogPost.Created.IsZero() {
		blogPost.Created = time.Now().UTC()
	}
	blogPost.Created = blogPost.Created.Truncate(time.Millisecond)
}

func duplicateKey(err error) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", errs.ErrAlreadyExists, err)
	}
	return err
}
