package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const collectionUsers = "users"

// Unique index names; duplicate-key errors are mapped back to a field by name.
const (
	indexEmail    = "email_unique"
	indexUsername = "username_unique"
	indexAPIKey   = "api_key_unique"
)

// viewProjection keeps the secrets on the server for reads that do not need them.
var viewProjection = bson.D{{Key: "password_hash", Value: 0}, {Key: "api_key", Value: 0}}

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Username     string    `bson:"username"`
	Name         string    `bson:"name"`
	Role         string    `bson:"role"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	APIKey       string    `bson:"api_key,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toDocument(u *domain.User) userDocument {
	return userDocument{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		Name:         u.Name,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		APIKey:       u.APIKeySecret,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (d userDocument) user() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Email:        d.Email,
		Username:     d.Username,
		Name:         d.Name,
		Role:         domain.Role(d.Role),
		PasswordHash: d.PasswordHash,
		APIKeySecret: d.APIKey,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// conflictFor names the unique index a duplicate-key error collided on.
func conflictFor(err error) *domain.ConflictError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexEmail):
		return &domain.ConflictError{Field: domain.FieldEmail}
	case strings.Contains(msg, indexUsername):
		return &domain.ConflictError{Field: domain.FieldUsername}
	case strings.Contains(msg, indexAPIKey):
		return &domain.ConflictError{Field: domain.FieldAPIKey}
	default:
		return &domain.ConflictError{Field: "id"}
	}
}

func mapFindError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrUserNotFound
	}
	return err
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return conflictFor(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return nil, mapFindError(err)
	}
	return doc.user(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindViewByID(ctx context.Context, id string) (*domain.UserView, error) {
	u, err := r.findOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(viewProjection))
	if err != nil {
		return nil, err
	}
	return u.Redacted(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByAPIKeySecret(ctx context.Context, secret string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"api_key": secret})
}

func (r *UserRepository) FindConflict(ctx context.Context, email, username string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{bson.M{"email": email}, bson.M{"username": username}}}
	opts := options.Find().
		SetProjection(bson.D{{Key: "email", Value: 1}, {Key: "username", Value: 1}}).
		SetLimit(2)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return "", fmt.Errorf("find conflict: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return "", fmt.Errorf("decode conflict: %w", err)
	}

	field := ""
	for _, d := range docs {
		if d.Email == email {
			return domain.FieldEmail, nil
		}
		if d.Username == username {
			field = domain.FieldUsername
		}
	}
	return field, nil
}

// set applies fields to one user and returns the updated record.
func (r *UserRepository) set(ctx context.Context, id string, fields bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, conflictFor(err)
		}
		return nil, mapFindError(err)
	}
	return doc.user(), nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	fields := bson.M{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Email != nil {
		fields["email"] = *patch.Email
	}
	if patch.Username != nil {
		fields["username"] = *patch.Username
	}
	return r.set(ctx, id, fields)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	return r.set(ctx, id, bson.M{"role": string(role)})
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	_, err := r.set(ctx, id, bson.M{"password_hash": hash})
	return err
}

func (r *UserRepository) UpdateAPIKeySecret(ctx context.Context, id, secret string) error {
	_, err := r.set(ctx, id, bson.M{"api_key": secret})
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List pages through users by creation time, then id.
func (r *UserRepository) List(ctx context.Context, req domain.PageRequest) ([]*domain.UserView, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetProjection(viewProjection).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(req.Offset()).
		SetLimit(int64(req.PerPage))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}

	views := make([]*domain.UserView, 0, len(docs))
	for _, d := range docs {
		views = append(views, d.user().Redacted())
	}
	return views, total, nil
}

// EnsureIndexes creates the unique indexes the repository relies on for
// conflict detection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexEmail)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUsername)},
		{Keys: bson.D{{Key: "api_key", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexAPIKey)},
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
