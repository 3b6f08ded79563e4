package dto

// ProfileResponse is the authenticated user's profile view.
type ProfileResponse struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Username          string `json:"username"`
	SubscriptionPlan  string `json:"subscription_plan"`
	Tokens            int    `json:"tokens"`
	DailyGrantApplied bool   `json:"daily_grant_applied"`
}

// SubscriptionResponse reports the plan and balance after a change.
type SubscriptionResponse struct {
	SubscriptionPlan string `json:"subscription_plan"`
	Tokens           int    `json:"tokens"`
}

// AssistantRequest is a student's question to the AI assistant.
type AssistantRequest struct {
	Message string `json:"message"`
}

// AssistantResponse is the assistant's reply plus the balance left.
type AssistantResponse struct {
	Reply           string `json:"reply"`
	TokensRemaining int    `json:"tokens_remaining"`
}
