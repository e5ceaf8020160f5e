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

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

type mongoUserRepository struct {
	users *mongo.Collection
	log   *observability.RepoLogger
}

// NewMongoUserRepository returns a UserRepository on the users collection of db.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		users: db.Collection(usersTable),
		log:   observability.NewRepoLogger(storeMongo, usersTable),
	}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery(storeMongo, "insert", usersTable)()

	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateUserError()
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}

	user.ID = doc.ID.Hex()
	r.log.LogCreate(ctx, map[string]any{"user_id": user.ID})
	return nil
}

func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery(storeMongo, "select", usersTable)()

	var doc userDocument
	err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return doc.toModel(), nil
}

func (r *mongoUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	defer observability.TrackQuery(storeMongo, "count", usersTable)()

	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
	n, err := r.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}
