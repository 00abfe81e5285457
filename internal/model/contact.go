package model

// ContactMessage is a support request relayed to the portal operators.
type ContactMessage struct {
	Base
	Name    string `db:"name" json:"name"`
	Email   string `db:"email" json:"email"`
	Message string `db:"message" json:"message"`
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,max=5000"`
}
