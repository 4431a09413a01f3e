package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxImageSize is the upload limit for images.
const MaxImageSize = 5 << 20

var (
	ErrTooLarge        = errors.New("storage: image exceeds size limit")
	ErrUnsupportedType = errors.New("storage: unsupported image type")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Options configures the S3-compatible endpoint.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL replaces scheme://endpoint in returned object URLs.
	PublicURL string
}

// Object describes a stored upload.
type Object struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Store keeps uploaded images in a MinIO bucket.
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
	now     func() time.Time
	newID   func() string
}

func New(opts Options) (*Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	base := opts.PublicURL
	if base == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + opts.Endpoint
	}

	return &Store{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: strings.TrimRight(base, "/"),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}, nil
}

// EnsureBucket creates the bucket with anonymous read access when it does
// not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	if err := s.client.SetBucketPolicy(ctx, s.bucket, readOnlyPolicy(s.bucket)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}

	slog.InfoContext(ctx, "created storage bucket", "bucket", s.bucket)
	return nil
}

// Upload validates an image part and stores it under a fresh object name.
func (s *Store) Upload(ctx context.Context, file *multipart.FileHeader) (*Object, error) {
	if file.Size > MaxImageSize {
		return nil, ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	contentType, err := Validate(file.Header.Get("Content-Type"), http.DetectContentType(head))
	if err != nil {
		return nil, err
	}

	name := ObjectName(s.now(), s.newID(), filepath.Ext(file.Filename))
	body := io.MultiReader(bytes.NewReader(head), src)

	_, err = s.client.PutObject(ctx, s.bucket, name, body, file.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	return &Object{
		URL:      s.URL(name),
		FileName: name,
		Size:     file.Size,
		MimeType: contentType,
	}, nil
}

// URL is the public address of an object in the bucket.
func (s *Store) URL(name string) string {
	return s.baseURL + "/" + s.bucket + "/" + name
}

// Validate checks both the declared and the sniffed content type and
// returns the one to store the object with.
func Validate(declared, sniffed string) (string, error) {
	declared = mediaType(declared)
	sniffed = mediaType(sniffed)
	if !allowedTypes[declared] || !allowedTypes[sniffed] {
		return "", ErrUnsupportedType
	}
	return sniffed, nil
}

// ObjectName is "<unix-millis>-<id><ext>" with the extension lowercased.
func ObjectName(now time.Time, id, ext string) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), id, strings.ToLower(ext))
}

func mediaType(v string) string {
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return mt
}

func readOnlyPolicy(bucket string) string {
	return `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},` +
		`"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::` + bucket + `/*"]}]}`
}
