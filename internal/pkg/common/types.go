package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 小程序端統一的響應格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// RespondOK 寫入成功響應
func RespondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: message, Data: data})
}

// RespondError 依 CustomError 寫入錯誤響應
func RespondError(c *gin.Context, err error) {
	ce := AsCustomError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, Response{Code: ce.Status, Message: ce.Message, Data: nil})
}

// RespondStatus 以指定狀態碼寫入無資料響應
func RespondStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Code: status, Message: message, Data: nil})
}
