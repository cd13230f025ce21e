package handlers

import (
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"memorybook-backend/internal/models"
	"memorybook-backend/internal/services"
	"memorybook-backend/internal/tokens"
)

const (
	maxUploadFiles    = 80
	maxUploadFileSize = 20 << 20 // 20MB per file

	customerNameField = "musteri_adi"
	tokenField        = "_token"
)

// Only photo uploads are accepted on the order form.
var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type SubmitHandler struct {
	service       *services.OrderService
	tokenManager  *tokens.Manager
	orderFormPath string
}

func NewSubmitHandler(service *services.OrderService, tokenManager *tokens.Manager, orderFormPath string) *SubmitHandler {
	return &SubmitHandler{
		service:       service,
		tokenManager:  tokenManager,
		orderFormPath: orderFormPath,
	}
}

// TokenLanding serves the capability link. A valid token gets the
// order form; a rejected one gets an error page with a reason-specific
// message.
func (h *SubmitHandler) TokenLanding(c *gin.Context) {
	token := c.Param("token")

	validation, err := h.tokenManager.Validate(token)
	if err != nil {
		c.String(http.StatusInternalServerError, "Sunucu hatası oluştu.")
		return
	}

	if validation.Valid {
		c.File(h.orderFormPath)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rejectionPage(validation)))
}

// TokenInfo returns the customer name for pre-filling the order form.
func (h *SubmitHandler) TokenInfo(c *gin.Context) {
	token := c.Param("token")

	validation, err := h.tokenManager.Validate(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Sunucu hatası oluştu."})
		return
	}
	if !validation.Valid {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Geçersiz token"})
		return
	}

	c.JSON(http.StatusOK, models.TokenInfoResponse{
		Success:      true,
		CustomerName: validation.Token.CustomerName,
		Token:        token,
	})
}

// Submit accepts the multipart order form, consumes the capability
// token, and materializes the order in remote storage.
func (h *SubmitHandler) Submit(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Dosya yükleme hatası oluştu."})
		return
	}

	customerName := c.PostForm(customerNameField)
	if customerName == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Dosya İsmi (Müşteri Adı) alanı boş geldi.",
		})
		return
	}

	fields := map[string]string{}
	for key, values := range form.Value {
		if key == customerNameField || key == tokenField {
			continue
		}
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	submission := services.Submission{
		Token:        c.PostForm(tokenField),
		CustomerName: customerName,
		Fields:       fields,
	}

	totalFiles := 0
	for field, headers := range form.File {
		for _, header := range headers {
			totalFiles++
			if totalFiles > maxUploadFiles {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Error: fmt.Sprintf("Çok fazla dosya seçtiniz. Maksimum %d dosya yükleyebilirsiniz.", maxUploadFiles),
				})
				return
			}
			if header.Size > maxUploadFileSize {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Error: "Dosya boyutu çok büyük. Maksimum 20MB yükleyebilirsiniz.",
				})
				return
			}

			contentType := header.Header.Get("Content-Type")
			if !allowedUploadTypes[contentType] {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Error: fmt.Sprintf("Geçersiz dosya tipi: %s. Sadece resim dosyaları (JPG, PNG, GIF, WebP) yüklenebilir.", contentType),
				})
				return
			}

			file, err := header.Open()
			if err != nil {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Dosya yükleme hatası oluştu."})
				return
			}
			defer file.Close()

			submission.Files = append(submission.Files, services.SubmittedFile{
				Field:    field,
				Name:     header.Filename,
				MimeType: contentType,
				Content:  file,
			})
		}
	}

	orderID, err := h.service.Submit(c.Request.Context(), submission)
	if err != nil {
		h.submitError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SubmitOrderResponse{
		Success: true,
		OrderID: orderID,
		Message: fmt.Sprintf("Sipariş başarıyla oluşturuldu! Sipariş numarası: %s", orderID),
	})
}

func (h *SubmitHandler) submitError(c *gin.Context, err error) {
	var rejected *services.TokenRejectedError
	switch {
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: fmt.Sprintf("Token geçersiz: %s", rejected.Reason),
		})
	case errors.Is(err, tokens.ErrAlreadyUsed):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "Token işaretlenemedi. Lütfen tekrar deneyin.",
		})
	default:
		log.Printf("Order submission error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Sunucu hatası oluştu."})
	}
}

func rejectionPage(validation tokens.Validation) string {
	message := "Bu link geçersiz."
	details := "Link bulunamadı veya bozuk."

	switch validation.Reason {
	case tokens.ReasonAlreadyUsed:
		message = "Bu link daha önce kullanılmış."
		details = "Sipariş bilgisi bulunamadı."
		if validation.Token != nil && validation.Token.OrderID != nil {
			details = "Sipariş numaranız: <strong>" + html.EscapeString(*validation.Token.OrderID) + "</strong>"
		}
	case tokens.ReasonExpired:
		message = "Bu linkin süresi dolmuş."
		details = "Lütfen yeni link isteyin."
	case tokens.ReasonDeleted:
		message = "Bu link iptal edilmiş."
		details = "Bu link yönetici tarafından geçersiz kılınmıştır. Lütfen yeni link isteyin."
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="tr">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Link Hatası</title>
</head>
<body>
<h1>%s</h1>
<p>%s</p>
<p><a href="/">Ana Sayfa</a></p>
</body>
</html>`, message, details)
}
