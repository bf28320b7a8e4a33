package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
)

// MaxImageBytes bounds the decoded size of a recipe image.
const MaxImageBytes = 5 << 20

var ErrInvalidImage = errors.New("invalid image")

// extensions maps accepted content types to object key extensions.
var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodedImage is the payload of an image data URI.
type DecodedImage struct {
	ContentType string
	Ext         string
	Data        []byte
}

// DecodeDataURI parses a "data:image/<type>;base64,<payload>" URI. The
// declared type must be one of png, jpeg, gif or webp and must match the
// sniffed content of the payload.
func DecodeDataURI(uri string) (*DecodedImage, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, fmt.Errorf("%w: expected a data URI", ErrInvalidImage)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data URI", ErrInvalidImage)
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, fmt.Errorf("%w: payload must be base64 encoded", ErrInvalidImage)
	}
	mediaType = strings.ToLower(mediaType)
	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}
	ext, ok := extensions[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, mediaType)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	if sniffed := http.DetectContentType(data); sniffed != mediaType {
		return nil, fmt.Errorf("%w: content is %s, declared %s", ErrInvalidImage, sniffed, mediaType)
	}

	return &DecodedImage{ContentType: mediaType, Ext: ext, Data: data}, nil
}

// PutObjectAPI is the part of the S3 client the image store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore uploads recipe images to an S3 bucket.
type S3ImageStore struct {
	client    PutObjectAPI
	bucket    string
	objectURL func(key string) string
	log       *logger.Logger
}

func NewS3ImageStore(cfg *config.S3Config, baseLog *logger.Logger) *S3ImageStore {
	return NewS3ImageStoreWithClient(cfg.Client, cfg.BucketName, cfg.ObjectURL, baseLog)
}

func NewS3ImageStoreWithClient(client PutObjectAPI, bucket string, objectURL func(string) string, baseLog *logger.Logger) *S3ImageStore {
	return &S3ImageStore{
		client:    client,
		bucket:    bucket,
		objectURL: objectURL,
		log:       baseLog.With("component", "S3ImageStore"),
	}
}

// Save decodes the data URI, uploads it under recipes/images/ and returns
// the public URL of the object.
func (s *S3ImageStore) Save(ctx context.Context, dataURI string) (string, error) {
	img, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("recipes/images/%s.%s", uuid.New(), img.Ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to S3: %w", err)
	}

	s.log.Debug("image uploaded", "key", key, "bytes", len(img.Data))
	return s.objectURL(key), nil
}
