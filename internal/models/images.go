package models

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	storage_go "github.com/supabase-community/storage-go"
)

// ImageUpload is a validated image on its way to an ImageStore.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ImageStore interface {
	Upload(ctx context.Context, objectPath string, img *ImageUpload, accessToken string) (*StoredImage, error)
	Remove(ctx context.Context, objectPath string, accessToken string) error
}

const imageCacheControl = "3600"

// SupabaseImageStore keeps images in a public storage bucket.
type SupabaseImageStore struct {
	repo   *SupabaseRepo
	bucket string
}

func NewSupabaseImageStore(repo *SupabaseRepo, bucket string) *SupabaseImageStore {
	if bucket == "" {
		bucket = ImagesBucket
	}
	return &SupabaseImageStore{repo: repo, bucket: bucket}
}

func (s *SupabaseImageStore) Upload(ctx context.Context, objectPath string, img *ImageUpload, accessToken string) (*StoredImage, error) {
	client, err := s.repo.clientFor(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUpload, err)
	}

	cacheControl := imageCacheControl
	contentType := img.ContentType
	upsert := false
	_, err = client.Storage.UploadFile(s.bucket, objectPath, bytes.NewReader(img.Data), storage_go.FileOptions{
		CacheControl: &cacheControl,
		ContentType:  &contentType,
		Upsert:       &upsert,
	})
	if err != nil {
		var storageErr *storage_go.StorageError
		if errors.As(err, &storageErr) {
			return nil, fmt.Errorf("%w: status=%d: %s", ErrImageUpload, storageErr.Status, storageErr.Message)
		}
		return nil, fmt.Errorf("%w: %v", ErrImageUpload, err)
	}

	public := client.Storage.GetPublicUrl(s.bucket, objectPath)
	return &StoredImage{URL: public.SignedURL, Path: objectPath}, nil
}

func (s *SupabaseImageStore) Remove(ctx context.Context, objectPath string, accessToken string) error {
	client, err := s.repo.clientFor(accessToken)
	if err != nil {
		return err
	}
	if _, err := client.Storage.RemoveFile(s.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("failed to remove image %s: %v", objectPath, err)
	}
	return nil
}

// CloudinaryImageStore uploads to a Cloudinary folder. The stored path is the
// Cloudinary public id.
type CloudinaryImageStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryImageStore(cld *cloudinary.Cloudinary, folder string) *CloudinaryImageStore {
	return &CloudinaryImageStore{cld: cld, folder: folder}
}

func (s *CloudinaryImageStore) Upload(ctx context.Context, objectPath string, img *ImageUpload, accessToken string) (*StoredImage, error) {
	publicID := strings.TrimSuffix(objectPath, path.Ext(objectPath))
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(img.Data), uploader.UploadParams{
		Folder:    s.folder,
		PublicID:  publicID,
		Overwrite: api.Bool(false),
		Tags:      []string{"gigs"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrImageUpload, res.Error.Message)
	}
	return &StoredImage{URL: res.SecureURL, Path: res.PublicID}, nil
}

func (s *CloudinaryImageStore) Remove(ctx context.Context, objectPath string, accessToken string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: objectPath})
	if err != nil {
		return fmt.Errorf("failed to remove image %s: %v", objectPath, err)
	}
	return nil
}
