package pkg

import "time"

type Connection struct {
	ID      string    `json:"id"`
	Remote  string    `json:"remote"`
	Created time.Time `json:"created"`
}

type Pair struct {
	Offerer  Connection `json:"offerer"`
	Answerer Connection `json:"answerer"`
	Paired   time.Time  `json:"paired"`
}

type Stats struct {
	Waiting     *Connection `json:"waiting,omitempty"`
	Pairs       []Pair      `json:"pairs"`
	Connections int         `json:"connections"`
}
