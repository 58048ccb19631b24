package live

import "github.com/stagelink/backend/internal/domain"

type startEventRequest struct {
	Settings *domain.LiveEventSettings `json:"settings,omitempty"`
}

type createIcebreakerRequest struct {
	Question string `json:"question"`
}

type moderatePhotoRequest struct {
	Approve bool `json:"approve"`
}

type hideMessageRequest struct {
	Reason string `json:"reason,omitempty"`
}
