package models

import "time"

// Beta request review states. Transitions out of pending are performed by
// an external reviewer process, never by this service.
const (
	BetaStatusPending  = "pending"
	BetaStatusApproved = "approved"
	BetaStatusRejected = "rejected"
)

// BetaRequest is one document in the `betaRequests` collection. The
// document ID is the submitting user's UID when authenticated, otherwise a
// generated anonymous key. Write-once from this service's perspective.
type BetaRequest struct {
	ID           string    `json:"id" firestore:"-"`
	UID          string    `json:"uid,omitempty" firestore:"uid"`
	Name         string    `json:"name" firestore:"name"`
	Email        string    `json:"email" firestore:"email"`
	Github       string    `json:"github,omitempty" firestore:"github"`
	Twitter      string    `json:"twitter,omitempty" firestore:"twitter"`
	UseCase      string    `json:"useCase" firestore:"useCase"`
	Experience   string    `json:"experience" firestore:"experience"`
	ExcitedAbout string    `json:"excitedAbout,omitempty" firestore:"excitedAbout"`
	RequestRef   string    `json:"requestRef" firestore:"requestRef"` // uuid, disambiguates anonymous submissions
	Status       string    `json:"status" firestore:"status"`
	SubmittedAt  time.Time `json:"submittedAt" firestore:"submittedAt,serverTimestamp"`
}

// BetaRequestForm is the submitted form payload. Validation tags are
// enforced before any write happens.
type BetaRequestForm struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Github       string `json:"github"`
	Twitter      string `json:"twitter"`
	UseCase      string `json:"useCase" validate:"required"`
	Experience   string `json:"experience" validate:"required"`
	ExcitedAbout string `json:"excitedAbout"`
}
