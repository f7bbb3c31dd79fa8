package models

import "encoding/json"

// Room is one entry of the lobby snapshot.
type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UnmarshalJSON accepts the identifier either as "id" or as the
// document-store style "_id"; "id" wins when both are present.
func (r *Room) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          string `json:"id"`
		DocID       string `json:"_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.ID = raw.ID
	if r.ID == "" {
		r.ID = raw.DocID
	}
	r.Name = raw.Name
	r.Description = raw.Description
	return nil
}
