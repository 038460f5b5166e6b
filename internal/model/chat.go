package model

// ChatRequest representa a requisição para o endpoint de chat
type ChatRequest struct {
	Text string `json:"text"`
}

// ChatResponse representa a resposta do endpoint de chat.
// Audio é serializado como base64 padrão pelo encoding/json.
type ChatResponse struct {
	Text  string `json:"text"`
	Audio []byte `json:"audio"`
}
