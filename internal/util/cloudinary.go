package util

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"platefeed/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const (
	tmpDirName   = "tmp"
	uploadFolder = "platefeed/posts"
)

// Widths of the delivered image variants; the stored image_urls set carries
// one URL per width.
var variantWidths = []int{1280, 640, 320}

type CloudinaryClient struct {
	cld *cloudinary.Cloudinary
	cfg *config.Config
}

func NewCloudinaryClient(cfg *config.Config) (*CloudinaryClient, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not configured")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryClient{
		cld: cld,
		cfg: cfg,
	}, nil
}

// CompressImage re-encodes an image as JPEG quality 80 in the tmp directory
func (c *CloudinaryClient) CompressImage(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	var img image.Image
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
		if err != nil {
			return "", fmt.Errorf("error decoding JPEG: %w", err)
		}
	case ".png":
		img, err = png.Decode(file)
		if err != nil {
			return "", fmt.Errorf("error decoding PNG: %w", err)
		}
	case ".webp":
		// Already compressed, upload as-is
		return filePath, nil
	default:
		return "", fmt.Errorf("unsupported image format: %s", ext)
	}

	tmpDir, err := ensureTmpDir()
	if err != nil {
		return "", err
	}

	compressedPath := filepath.Join(tmpDir, uuid.New().String()+".compressed.jpg")
	compressedFile, err := os.Create(compressedPath)
	if err != nil {
		return "", fmt.Errorf("error creating compressed file: %w", err)
	}
	defer compressedFile.Close()

	if err := jpeg.Encode(compressedFile, img, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("error encoding compressed image: %w", err)
	}

	return compressedPath, nil
}

// UploadImage uploads an image and returns its URL variant set, one WebP URL
// per delivery width, widest first.
func (c *CloudinaryClient) UploadImage(filePath string) ([]string, error) {
	ctx := context.Background()

	result, err := c.cld.Upload.Upload(ctx, filePath, uploader.UploadParams{
		Folder:       uploadFolder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading to cloudinary: %w", err)
	}

	urls := make([]string, 0, len(variantWidths))
	for _, w := range variantWidths {
		transform := fmt.Sprintf("/upload/f_webp,q_auto,w_%d/", w)
		urls = append(urls, strings.Replace(result.SecureURL, "/upload/", transform, 1))
	}
	return urls, nil
}

// ProcessFileFromMemory writes uploaded bytes to a temp file, compresses and
// uploads them, returning the variant URL set.
func (c *CloudinaryClient) ProcessFileFromMemory(fileData []byte, filename string) ([]string, error) {
	tmpDir, err := ensureTmpDir()
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	tempFile := filepath.Join(tmpDir, uuid.New().String()+ext)

	if err := os.WriteFile(tempFile, fileData, 0644); err != nil {
		return nil, fmt.Errorf("error writing temp file: %w", err)
	}
	defer os.Remove(tempFile)

	compressedPath, err := c.CompressImage(tempFile)
	if err != nil {
		// If compression fails, upload the original
		compressedPath = tempFile
	} else if compressedPath != tempFile {
		defer os.Remove(compressedPath)
	}

	return c.UploadImage(compressedPath)
}

func ensureTmpDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		tmpDir := filepath.Join(os.TempDir(), tmpDirName)
		if err := os.MkdirAll(tmpDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create tmp directory: %w", err)
		}
		return tmpDir, nil
	}

	tmpDir := filepath.Join(wd, tmpDirName)
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create tmp directory: %w", err)
	}
	return tmpDir, nil
}
