package image

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	_ "image/gif" // 解碼後拒絕
	_ "image/png" // 支援 PNG

	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/pkg/common"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // 解碼後拒絕
)

// 上傳檔名允許的副檔名
var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// 實際內容允許的格式，webp 可以解碼但不接受
var supportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// Prepared 已驗證並可送往模型的圖片
type Prepared struct {
	DataURI string
	Format  string
	Hash    string
	Width   int
	Height  int
	Resized bool
}

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	maxDimension int
}

// NewService 創建新的圖片處理服務
func NewService(cfg config.ImageConfig) *Service {
	return &Service{
		maxSizeBytes: cfg.MaxSizeBytes,
		maxDimension: cfg.MaxDimension,
	}
}

// AllowedExtension 檢查上傳檔名的副檔名
func AllowedExtension(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return allowedExtensions[ext]
}

// Prepare 驗證圖片，過大時縮圖，並轉成 data URI
func (s *Service) Prepare(data []byte) (*Prepared, error) {
	if len(data) == 0 {
		return nil, common.ErrInvalidImageFormat.WithMessage("圖片內容為空")
	}

	// 檢查文件大小
	if s.maxSizeBytes > 0 && int64(len(data)) > s.maxSizeBytes {
		return nil, common.ErrInvalidImageSize.WithMessage(
			fmt.Sprintf("圖片大小超過 %d bytes 上限", s.maxSizeBytes))
	}

	// 解碼圖片
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode image: %w", err))
	}

	// 檢查圖片格式
	if !supportedFormats[format] {
		return nil, common.ErrInvalidImageType.WithMessage(
			fmt.Sprintf("圖片內容類型 %s 不支援", format))
	}

	sum := sha256.Sum256(data)
	bounds := img.Bounds()
	out := &Prepared{
		Format: format,
		Hash:   hex.EncodeToString(sum[:]),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	payload := data
	if s.maxDimension > 0 && (out.Width > s.maxDimension || out.Height > s.maxDimension) {
		resized := s.shrink(img, out.Width, out.Height)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return nil, common.ErrInternalError.Wrap(fmt.Errorf("failed to encode image as JPEG: %w", err))
		}

		common.LogDebug("圖片已縮小",
			zap.Int("原始寬度", out.Width),
			zap.Int("原始高度", out.Height),
			zap.Int("寬度", resized.Bounds().Dx()),
			zap.Int("高度", resized.Bounds().Dy()),
		)

		payload = buf.Bytes()
		out.Format = "jpeg"
		out.Width = resized.Bounds().Dx()
		out.Height = resized.Bounds().Dy()
		out.Resized = true
	}

	out.DataURI = fmt.Sprintf("data:image/%s;base64,%s", out.Format, base64.StdEncoding.EncodeToString(payload))
	return out, nil
}

// shrink 依長邊等比例縮小
func (s *Service) shrink(img image.Image, width, height int) image.Image {
	if width >= height {
		return resize.Resize(uint(s.maxDimension), 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, uint(s.maxDimension), img, resize.Lanczos3)
}
