package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ndudarev/filevault/internal/models"
)

// Mongo persists users and file metadata in MongoDB.
type Mongo struct {
	users *mongo.Collection
	files *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		users: db.Collection("users"),
		files: db.Collection("files"),
	}
}

// EnsureIndexes creates the unique index on users.login. The index
// makes registration an atomic insert-if-absent: a concurrent duplicate
// insert fails with a duplicate-key error instead of racing.
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "login", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo create login index: %w", err)
	}
	return nil
}

func (s *Mongo) FindUser(ctx context.Context, login string) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"login": login}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find user: %w", err)
	}
	return &u, nil
}

func (s *Mongo) InsertUser(ctx context.Context, login, digest string) error {
	_, err := s.users.InsertOne(ctx, bson.M{"login": login, "password": digest})
	if mongo.IsDuplicateKeyError(err) {
		return ErrLoginTaken
	}
	if err != nil {
		return fmt.Errorf("mongo insert user: %w", err)
	}
	return nil
}

func (s *Mongo) InsertFile(ctx context.Context, f *models.File) error {
	f.CreatedAt = time.Now()
	if _, err := s.files.InsertOne(ctx, f); err != nil {
		return fmt.Errorf("mongo insert file: %w", err)
	}
	return nil
}

// FindFile looks a file up by GUID, filtered by the public flag the
// same way the download path queries it.
func (s *Mongo) FindFile(ctx context.Context, guid string, public bool) (*models.File, error) {
	var f models.File
	err := s.files.FindOne(ctx, bson.M{"_id": guid, "public": public}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find file: %w", err)
	}
	return &f, nil
}

// ListFilesByOwner returns filename/GUID pairs for every file owned by
// the login, using a projection so file metadata stays out of the wire.
func (s *Mongo) ListFilesByOwner(ctx context.Context, login string) ([]models.FileEntry, error) {
	opts := options.Find().SetProjection(bson.M{"filename": 1, "_id": 1})
	cur, err := s.files.Find(ctx, bson.M{"owner_login": login}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list files: %w", err)
	}
	defer cur.Close(ctx)

	var entries []models.FileEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("mongo list files: %w", err)
	}
	return entries, nil
}

// DeleteFile removes one file if it is owned by login. It reports
// whether a document was actually deleted so callers can clean up the
// stored bytes only for files that existed and were theirs.
func (s *Mongo) DeleteFile(ctx context.Context, login, guid string) (bool, error) {
	res, err := s.files.DeleteOne(ctx, bson.M{"_id": guid, "owner_login": login})
	if err != nil {
		return false, fmt.Errorf("mongo delete file: %w", err)
	}
	return res.DeletedCount > 0, nil
}
