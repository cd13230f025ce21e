package models

import "time"

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type GenerateTokenResponse struct {
	Success         bool   `json:"success"`
	Token           string `json:"token"`
	Link            string `json:"link"`
	WhatsappMessage string `json:"whatsappMessage"`
}

type TokenListResponse struct {
	Success bool          `json:"success"`
	Tokens  []TokenRecord `json:"tokens"`
}

type TokenInfoResponse struct {
	Success      bool   `json:"success"`
	CustomerName string `json:"customerName"`
	Token        string `json:"token"`
}

type SubmitOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

type StatusUpdateResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	OldStatus OrderStatus `json:"oldStatus"`
	NewStatus OrderStatus `json:"newStatus"`
}

// OrderSummary is one row of the admin dashboard listing.
type OrderSummary struct {
	OrderID      string            `json:"orderId"`
	CustomerName string            `json:"customerName"`
	CreatedAt    time.Time         `json:"createdAt"`
	Status       OrderStatus       `json:"status"`
	FolderName   string            `json:"folderName"`
	FolderID     string            `json:"folderId"`
	FileCounts   map[string]int    `json:"fileCounts"`
	Fields       map[string]string `json:"fields"`
}

type OrderListResponse struct {
	Success bool           `json:"success"`
	Orders  []OrderSummary `json:"orders"`
}
