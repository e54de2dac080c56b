package entity

// Tag is a shared interest topic accounts can associate with. Tags are
// referenced, never owned: dropping an association leaves the tag in place.
type Tag struct {
	ID    string
	Title string
}
