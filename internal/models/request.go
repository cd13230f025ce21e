package models

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GenerateTokenRequest struct {
	CustomerName string `json:"customerName" binding:"required"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type BulkUpdateRequest struct {
	OrderIDs []string `json:"orderIds" binding:"required"`
	Status   string   `json:"status" binding:"required"`
	Note     string   `json:"note"`
}
