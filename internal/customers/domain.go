package customers

import "time"

// Customer is a named buyer who may carry a credit balance.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone"`
	Address   *string   `db:"address" json:"address"`
	City      *string   `db:"city" json:"city"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Input carries customer fields for create and update.
type Input struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"phone"`
	Address string `json:"address" validate:"max=500"`
	City    string `json:"city" validate:"max=100"`
}
