package repository

import (
	"context"
	"errors"
	"time"

	"quill/internal/models"
	"quill/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Content        string             `bson:"content"`
	Category       string             `bson:"category"`
	AuthorID       string             `bson:"author_id"`
	AuthorUsername string             `bson:"author_username"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d *postDocument) toModel() *models.Post {
	return &models.Post{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Content:        d.Content,
		Category:       d.Category,
		AuthorID:       d.AuthorID,
		AuthorUsername: d.AuthorUsername,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type mongoPostRepository struct {
	posts *mongo.Collection
	log   *observability.RepoLogger
}

// NewMongoPostRepository returns a PostRepository on the posts collection of db.
func NewMongoPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{
		posts: db.Collection(postsTable),
		log:   observability.NewRepoLogger(storeMongo, postsTable),
	}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.NewInvalidIDError("post")
	}
	return oid, nil
}

func (r *mongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery(storeMongo, "insert", postsTable)()

	doc := postDocument{
		ID:             primitive.NewObjectID(),
		Title:          post.Title,
		Content:        post.Content,
		Category:       post.Category,
		AuthorID:       post.AuthorID,
		AuthorUsername: post.AuthorUsername,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}
	if _, err := r.posts.InsertOne(ctx, doc); err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}

	post.ID = doc.ID.Hex()
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "author_id": post.AuthorID})
	return nil
}

func (r *mongoPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	defer observability.TrackQuery(storeMongo, "select", postsTable)()

	var doc postDocument
	err = r.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NewNotFoundError("Post")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return doc.toModel(), nil
}

func (r *mongoPostRepository) List(ctx context.Context, skip, limit int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	if limit == 0 {
		return posts, nil
	}

	defer observability.TrackQuery(storeMongo, "select", postsTable)()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range docs {
		posts = append(posts, docs[i].toModel())
	}
	return posts, nil
}

func (r *mongoPostRepository) Update(ctx context.Context, post *models.Post) error {
	oid, err := parseObjectID(post.ID)
	if err != nil {
		return err
	}

	defer observability.TrackQuery(storeMongo, "update", postsTable)()

	result, err := r.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":      post.Title,
		"content":    post.Content,
		"category":   post.Category,
		"updated_at": post.UpdatedAt,
	}})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("Post")
	}

	r.log.LogUpdate(ctx, map[string]any{"post_id": post.ID})
	return nil
}

func (r *mongoPostRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	defer observability.TrackQuery(storeMongo, "delete", postsTable)()

	result, err := r.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	if result.DeletedCount == 0 {
		return models.NewNotFoundError("Post")
	}

	r.log.LogDelete(ctx, map[string]any{"post_id": id})
	return nil
}

// EnsureMongoIndexes creates the unique username and email indexes and the
// listing index. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersTable).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(postsTable).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	})
	return err
}
