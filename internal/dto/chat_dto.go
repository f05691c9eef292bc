package dto

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type SendMessageResponse struct {
	ConversationID string          `json:"conversation_id"`
	User           MessageResponse `json:"user"`
	Reply          MessageResponse `json:"reply"`
	Failed         bool            `json:"failed"`
	TimedOut       bool            `json:"timed_out"`
}

type CitationClickRequest struct {
	MessageID string `json:"message_id" validate:"required"`
	Marker    int    `json:"marker" validate:"required,min=1"`
	CrossView bool   `json:"cross_view"`
}

type SelectTabRequest struct {
	Tab string `json:"tab" validate:"required,oneof=sources history"`
}

type SelectSourceRequest struct {
	MessageID string `json:"message_id" validate:"required"`
	SourceID  string `json:"source_id" validate:"required"`
}
