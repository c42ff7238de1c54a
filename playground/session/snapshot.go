package session

import (
	"time"

	"github.com/suyash-sneo/lifeback/life"
)

// Frame is one entry of the undo history. The generation travels with the
// board so stepping back restores it.
type Frame struct {
	Grid        life.Grid
	Generation  uint64
	Fingerprint uint64
}

func newFrame(g life.Grid, generation uint64) Frame {
	return Frame{Grid: g, Generation: generation, Fingerprint: g.Fingerprint()}
}

// Snapshot is a point-in-time view of a session for the UI and the API.
type Snapshot struct {
	Now       time.Time          `json:"now"`
	SessionID string             `json:"sessionId"`
	Mode      string             `json:"mode"`
	RedisAddr string             `json:"redisAddr,omitempty"`
	Sessions  []string           `json:"sessions,omitempty"`
	Board     Board              `json:"board"`
	History   History            `json:"history"`
	Run       RunState           `json:"run"`
	Period    int                `json:"period,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`

	// Grid is the live board for in-process renderers.
	Grid life.Grid `json:"-"`
}

type Board struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Generation  uint64   `json:"generation"`
	Population  int      `json:"population"`
	Fingerprint string   `json:"fingerprint"`
	Rule        string   `json:"rule"`
	Edges       string   `json:"edges"`
	Rows        []string `json:"rows"`
}

type History struct {
	Depth    int `json:"depth"`
	Capacity int `json:"capacity"`
	Limit    int `json:"limit"`
}

type RunState struct {
	Running     bool          `json:"running"`
	Interval    time.Duration `json:"interval"`
	StopOnCycle bool          `json:"stopOnCycle"`
}
