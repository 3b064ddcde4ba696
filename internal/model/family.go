package model

import "time"

type Family struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"owner_id"`
	InviteCode string    `json:"invite_code"`
	Members    []User    `json:"members"`
	CreatedAt  time.Time `json:"created_at"`
}

// Member returns the member with the given id, or nil.
func (f *Family) Member(id string) *User {
	for i := range f.Members {
		if f.Members[i].ID == id {
			return &f.Members[i]
		}
	}
	return nil
}
