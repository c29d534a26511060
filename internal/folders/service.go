// Package folders provisions the standard working-folder tree for a project
// in an S3-compatible object store.
package folders

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultTemplate is the folder tree created for every new project.
var DefaultTemplate = []string{
	"01 Admin",
	"02 Incoming",
	"03 Outgoing",
	"04 Fee Proposals",
	"05 Contracts",
	"06 Drawings",
	"07 Reports",
	"08 Photos",
}

// markerObject is the zero-byte object that makes an empty prefix visible
// in bucket listings.
const markerObject = ".keep"

// Config holds connection parameters for the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Service creates and lists project folders in a single bucket.
type Service struct {
	client   *minio.Client
	bucket   string
	template []string
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connect: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		log.Printf("folders: created bucket %s", cfg.Bucket)
	}

	return &Service{client: client, bucket: cfg.Bucket, template: DefaultTemplate}, nil
}

// FolderName renders the root folder for a project: "25-97105 Coastal Tower".
func FolderName(number, projectName string) string {
	name := strings.TrimSpace(projectName)
	if name == "" {
		return number
	}
	return number + " " + sanitize(name)
}

// sanitize strips characters that are unsafe in object keys.
func sanitize(name string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", "\n", " ", "\r", " ")
	return strings.TrimSpace(replacer.Replace(name))
}

// Provision creates the template tree under the project's root folder and
// returns the root prefix. Already-existing prefixes are left untouched.
func (s *Service) Provision(ctx context.Context, number, projectName string) (string, error) {
	root := FolderName(number, projectName)
	for _, sub := range s.template {
		key := root + "/" + sub + "/" + markerObject
		_, err := s.client.PutObject(ctx, s.bucket, key,
			strings.NewReader(""), 0, minio.PutObjectOptions{ContentType: "application/octet-stream"})
		if err != nil {
			return "", fmt.Errorf("provision %s: %w", key, err)
		}
	}
	return root, nil
}

// List returns the object keys under a project's root folder.
func (s *Service) List(ctx context.Context, root string) ([]string, error) {
	prefix := strings.TrimSuffix(root, "/") + "/"
	var keys []string
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, object.Err)
		}
		keys = append(keys, object.Key)
	}
	return keys, nil
}

// Remove deletes everything under a project's root folder.
func (s *Service) Remove(ctx context.Context, root string) error {
	keys, err := s.List(ctx, root)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}
