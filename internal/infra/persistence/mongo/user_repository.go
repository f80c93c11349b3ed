package mongo

import (
	"context"
	"log/slog"

	"secondchance/config"
	"secondchance/internal/domain/entity"
	"secondchance/internal/domain/lifecycle"
	"secondchance/internal/domain/repository"
	"secondchance/internal/errors"
	"secondchance/internal/infra/persistence/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

const emailIndexName = "email_unique"

// UserRepositoryParams defines the dependencies of the user repository
type UserRepositoryParams struct {
	fx.In
	fx.Lifecycle

	Database *mongodriver.Database
	Config   *config.Config
	Logger   *slog.Logger
}

// userRepository implements the domain.UserRepository interface on a MongoDB collection.
type userRepository struct {
	coll *mongodriver.Collection
}

// NewUserRepository is the constructor for userRepository.
// When mongo.ensureEmailIndex is set, the unique email index is created on start.
func NewUserRepository(params UserRepositoryParams) repository.UserRepository {
	repo := newUserRepository(params.Database.Collection(params.Config.Mongo.Collection))

	if params.Config.Mongo.EnsureEmailIndex {
		params.Append(fx.Hook{
			OnStart: func(startCtx context.Context) error {
				ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
				defer cancel()

				if err := repo.ensureEmailIndex(ctx); err != nil {
					return err
				}

				params.Logger.Info("Unique email index ensured", slog.String("index", emailIndexName))

				return nil
			},
		})
	}

	return repo
}

func newUserRepository(coll *mongodriver.Collection) *userRepository {
	return &userRepository{coll: coll}
}

// FindByEmail retrieves a single user by exact email match.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var doc model.UserDocument

	err := repo.coll.FindOne(ctx, bson.D{{Key: model.FieldEmail, Value: email}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}

		return nil, storeFailure(err, "find user by email")
	}

	return toUserDomain(&doc)
}

// Insert persists a new user and sets the store-assigned ID on the entity.
func (repo *userRepository) Insert(ctx context.Context, user *entity.User) error {
	doc, err := fromUserDomain(user)
	if err != nil {
		return err
	}

	result, err := repo.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return errors.Wrapf(repository.ErrDuplicateKey, "insert user %s", user.Email)
		}

		return storeFailure(err, "insert user")
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	user.ID = insertedID.Hex()

	return nil
}

// UpdateByEmail applies the patch to the user matching email and returns the post-update record.
// Only the patch's non-nil name fields and updatedAt are written.
func (repo *userRepository) UpdateByEmail(ctx context.Context, email string, patch *entity.UserPatch) (*entity.User, error) {
	set := bson.D{{Key: model.FieldUpdatedAt, Value: patch.UpdatedAt}}
	if patch.FirstName != nil {
		set = append(set, bson.E{Key: model.FieldFirstName, Value: *patch.FirstName})
	}
	if patch.LastName != nil {
		set = append(set, bson.E{Key: model.FieldLastName, Value: *patch.LastName})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc model.UserDocument
	err := repo.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: model.FieldEmail, Value: email}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}

		return nil, storeFailure(err, "update user by email")
	}

	return toUserDomain(&doc)
}

func (repo *userRepository) ensureEmailIndex(ctx context.Context) error {
	_, err := repo.coll.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: model.FieldEmail, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create unique email index")
	}

	return nil
}

// toUserDomain maps a stored document to the domain entity, rejecting documents
// that lack the fields every user record must carry.
func toUserDomain(doc *model.UserDocument) (*entity.User, error) {
	if doc.Email == "" {
		return nil, errors.Wrapf(repository.ErrMalformedRecord, "user %s has no %s", doc.ID.Hex(), model.FieldEmail)
	}
	if doc.Password == "" {
		return nil, errors.Wrapf(repository.ErrMalformedRecord, "user %s has no %s", doc.ID.Hex(), model.FieldPassword)
	}

	return &entity.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		PasswordHash: doc.Password,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func fromUserDomain(user *entity.User) (*model.UserDocument, error) {
	doc := &model.UserDocument{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Password:  user.PasswordHash,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if user.ID != "" {
		id, err := primitive.ObjectIDFromHex(user.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid user id %q", user.ID)
		}
		doc.ID = id
	}

	return doc, nil
}
