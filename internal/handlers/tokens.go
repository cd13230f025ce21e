package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"memorybook-backend/internal/models"
	"memorybook-backend/internal/tokens"
)

type TokensHandler struct {
	manager *tokens.Manager
	baseURL string
}

func NewTokensHandler(manager *tokens.Manager, baseURL string) *TokensHandler {
	return &TokensHandler{manager: manager, baseURL: baseURL}
}

// List returns every token ever issued, for the admin panel.
func (h *TokensHandler) List(c *gin.Context) {
	records, err := h.manager.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.TokenListResponse{Success: true, Tokens: records})
}

// Generate issues a token for a customer and returns the shareable
// link plus the ready-to-forward WhatsApp message.
func (h *TokensHandler) Generate(c *gin.Context) {
	var req models.GenerateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CustomerName) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Müşteri adı gereklidir."})
		return
	}
	customerName := strings.TrimSpace(req.CustomerName)

	rec, err := h.manager.Create(customerName, tokens.DefaultTTLDays)
	if err != nil {
		log.Printf("Token generation error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Token oluşturulamadı."})
		return
	}

	link := tokens.ShareLink(h.baseURL, rec.Token)
	message := tokens.WhatsAppMessage(customerName, link)
	if err := h.manager.SetShareMetadata(rec.Token, link, message); err != nil {
		log.Printf("Token metadata error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Token oluşturulamadı."})
		return
	}

	c.JSON(http.StatusOK, models.GenerateTokenResponse{
		Success:         true,
		Token:           rec.Token,
		Link:            link,
		WhatsappMessage: message,
	})
}

// Delete soft-revokes a token so its link stops working.
func (h *TokensHandler) Delete(c *gin.Context) {
	token := c.Param("token")

	ok, err := h.manager.Delete(token)
	if err != nil {
		log.Printf("Token deletion error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Token silinirken hata oluştu."})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Token bulunamadı."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Token başarıyla silindi ve geçersiz kılındı.",
	})
}
