package todo

// Item is a single to-do record. Ids are assigned by the caller; timestamps
// are ISO-8601 strings kept exactly as received.
type Item struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// IndexOf returns the position of the first item with the given id, or -1.
func IndexOf(items []Item, id int) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
