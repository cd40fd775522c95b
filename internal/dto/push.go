package dto

// PushSubscribeRequest mirrors the browser PushSubscription JSON document.
type PushSubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256DH string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// VAPIDKeyResponse exposes the public key browsers subscribe with.
type VAPIDKeyResponse struct {
	PublicKey string `json:"public_key"`
}
