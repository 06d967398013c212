package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"recipe-inventory/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// deduper 記錄寫入請求的指紋與時間
type deduper struct {
	mu        sync.Mutex
	window    time.Duration
	requests  map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func newDeduper(window time.Duration) *deduper {
	if window <= 0 {
		window = time.Second
	}
	return &deduper{
		window:    window,
		requests:  make(map[string]time.Time),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// seen 檢查指紋是否在時間窗內出現過，並記錄本次請求
func (d *deduper) seen(fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, exists := d.requests[fingerprint]; exists && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now

	// 清理過舊的指紋
	if now.Sub(d.lastSweep) > 10*d.window {
		for k, t := range d.requests {
			if now.Sub(t) > d.window {
				delete(d.requests, k)
			}
		}
		d.lastSweep = now
	}
	return false
}

// Deduplication 拒絕時間窗內重複送出的寫入請求
func Deduplication(window time.Duration) gin.HandlerFunc {
	d := newDeduper(window)

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				common.RespondError(c, common.ErrInvalidRequest.WithMessage("無法讀取請求內容"))
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		// 生成請求指紋
		fingerprint := c.Request.Method + ":" + c.Request.URL.Path + ":" + IdentityFrom(c)
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		if d.seen(fingerprint) {
			common.LogInfo("重複請求已拒絕",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
			common.RespondError(c, common.ErrTooManyRequests.WithMessage("請求過於頻繁，請勿重複提交"))
			return
		}

		c.Next()
	}
}
