package dto

// DownloadRequest asks for a link to a purchased file.
type DownloadRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	ProductID string `json:"productId" binding:"required"`
}

// DownloadResponse carries a time-limited link.
type DownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ProductName string `json:"productName"`
	ExpiresIn   int    `json:"expiresIn"`
}
