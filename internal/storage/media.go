package storage

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"pawhub/pkg/utils"
)

const (
	MaxImageBytes = 5 << 20 // 5MB

	SubdirDogPhotos = "dog_photos"
	SubdirAvatars   = "avatars"
)

var (
	ErrTooLarge = errors.New("image exceeds the 5MB limit")
	ErrNotImage = errors.New("uploaded file must be an image")
)

// MediaStore 磁盘媒体目录，实体里只存相对路径
type MediaStore struct {
	root string
}

func NewMediaStore(root string) (*MediaStore, error) {
	for _, sub := range []string{SubdirDogPhotos, SubdirAvatars} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, err
		}
	}
	return &MediaStore{root: root}, nil
}

func (s *MediaStore) Root() string { return s.root }

// SaveImage 校验大小和类型，落盘后返回相对路径（uuid + 原扩展名）
func (s *MediaStore) SaveImage(fh *multipart.FileHeader, subdir string) (string, error) {
	if fh.Size > MaxImageBytes {
		return "", ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxImageBytes {
		return "", ErrTooLarge
	}
	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return "", ErrNotImage
	}

	name := utils.NewID() + strings.ToLower(filepath.Ext(fh.Filename))
	rel := path.Join(subdir, name)
	if err := os.WriteFile(filepath.Join(s.root, subdir, name), data, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

// Remove 删除相对路径对应的文件，文件不存在不算错
func (s *MediaStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
