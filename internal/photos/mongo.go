package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const gridFSBucketName = "photos"

var newestFirst = bson.D{{Key: "uploadDate", Value: -1}, {Key: "_id", Value: -1}}

// MongoBlobStore хранит версии в GridFS: имя файла = ключ, ревизии = версии
type MongoBlobStore struct {
	client *mongo.Client
	files  *mongo.Collection
	bucket *gridfs.Bucket
}

func NewMongoBlobStore(ctx context.Context, uri, database string) (*MongoBlobStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(gridFSBucketName))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}

	return &MongoBlobStore{
		client: client,
		files:  db.Collection(gridFSBucketName + ".files"),
		bucket: bucket,
	}, nil
}

func (s *MongoBlobStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetWriteDeadline(dl)
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	_, err := s.bucket.UploadFromStream(key, bytes.NewReader(data), opts)
	return err
}

func (s *MongoBlobStore) Latest(ctx context.Context, key string) (*Blob, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetReadDeadline(dl)
	}
	// uploadDate с точностью до мс; при равенстве решает _id
	var latest struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := s.files.FindOne(ctx, bson.M{"filename": key},
		options.FindOne().SetSort(newestFirst).SetProjection(bson.M{"_id": 1}),
	).Decode(&latest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	stream, err := s.bucket.OpenDownloadStream(latest.ID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = stream.Close()
	}()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}

	file := stream.GetFile()
	blob := &Blob{
		Key:       key,
		Data:      data,
		CreatedAt: file.UploadDate,
	}
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			blob.ContentType = ct
		}
	}
	return blob, nil
}

func (s *MongoBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.files.CountDocuments(ctx, bson.M{"filename": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoBlobStore) Prune(ctx context.Context, key string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	opts := options.GridFSFind().
		SetSort(newestFirst).
		SetSkip(int32(keep))

	cursor, err := s.bucket.Find(bson.M{"filename": key}, opts)
	if err != nil {
		return 0, err
	}

	var stale []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &stale); err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range stale {
		if err := s.bucket.Delete(f.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *MongoBlobStore) Keys(ctx context.Context) ([]string, error) {
	values, err := s.files.Distinct(ctx, "filename", bson.D{})
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for _, v := range values {
		if k, ok := v.(string); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MongoBlobStore) Close() error {
	return s.client.Disconnect(context.Background())
}
