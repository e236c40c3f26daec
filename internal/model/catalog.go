package model

// Genre is a play genre (genres table).
type Genre struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Actor is a performer who can appear in many plays (actors table).
type Actor struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName returns "first last", the form used in play listings.
func (a Actor) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Play is the writable form of a play: scalar columns plus the sets of
// actor and genre ids stored in the play_actors and play_genres join
// tables.  Id order inside the sets carries no meaning.
type Play struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       *string  `json:"image"`
	Actors      []uint64 `json:"actors"`
	Genres      []uint64 `json:"genres"`
}

// PlayListItem is a play as shown in listings, with actor full names and
// genre names instead of ids.
type PlayListItem struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       *string  `json:"image"`
	Actors      []string `json:"actors"`
	Genres      []string `json:"genres"`
}

// PlayDetail is a single play with nested actor and genre objects.
type PlayDetail struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	Actors      []Actor `json:"actors"`
	Genres      []Genre `json:"genres"`
}
