package model

import "time"

// Performance is a scheduled showing of a play in a hall (performances
// table).  ShowTime is stored and returned in UTC.
type Performance struct {
	ID       uint64    `json:"id"`
	PlayID   uint64    `json:"play"`
	HallID   uint64    `json:"theatre_hall"`
	ShowTime time.Time `json:"show_time"`
}

// PerformanceListItem is a performance as shown in listings.
// TicketsAvailable is computed from the ticket count at query time.
type PerformanceListItem struct {
	ID               uint64    `json:"id"`
	ShowTime         time.Time `json:"show_time"`
	PlayTitle        string    `json:"play_title"`
	HallName         string    `json:"theatre_hall_name"`
	HallCapacity     int       `json:"theatre_hall_capacity"`
	TicketsAvailable int       `json:"tickets_available"`
}

// PerformanceDetail nests the play, the hall and the places already sold.
type PerformanceDetail struct {
	ID               uint64       `json:"id"`
	ShowTime         time.Time    `json:"show_time"`
	Play             PlayListItem `json:"play"`
	Hall             Hall         `json:"theatre_hall"`
	TicketsAvailable int          `json:"tickets_available"`
	TakenPlaces      []Place      `json:"taken_places"`
}

// Place is a (row, seat) pair inside a hall.
type Place struct {
	Row  int `json:"row"`
	Seat int `json:"seat"`
}
