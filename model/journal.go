package model

import (
	"time"

	"gorm.io/datatypes"
)

// GhostMove records one strategy decision for one ghost on one tick.
type GhostMove struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID    string         `gorm:"index:idx_move_room_tick,priority:1;size:36;not null" json:"room_id"`
	Tick      int64          `gorm:"index:idx_move_room_tick,priority:2;not null" json:"tick"`
	Ghost     string         `gorm:"index:idx_move_ghost;size:16;not null" json:"ghost"`
	Mode      string         `gorm:"size:16;not null" json:"mode"`
	FromX     int            `json:"from_x"`
	FromY     int            `json:"from_y"`
	Direction string         `gorm:"size:8" json:"direction"` // empty when the strategy had no move
	Moved     bool           `json:"moved"`
	Home      bool           `json:"home"`
	Detail    datatypes.JSON `json:"detail"`
	CreatedAt time.Time      `gorm:"autoCreateTime:milli" json:"created_at"`
}

// ModeChange records a switch of a room's active strategy.
type ModeChange struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID    string    `gorm:"index:idx_mode_room;size:36;not null" json:"room_id"`
	Tick      int64     `json:"tick"`
	From      string    `gorm:"size:16" json:"from"`
	To        string    `gorm:"size:16;not null" json:"to"`
	Reason    string    `gorm:"size:16;not null" json:"reason"` // schedule | admin
	CreatedAt time.Time `gorm:"index:idx_mode_created;autoCreateTime:milli" json:"created_at"`
}

// Room records a room's lifetime.
type Room struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Board     string     `gorm:"size:64;not null" json:"board"`
	Seed      int64      `json:"seed"`
	CreatedAt time.Time  `gorm:"autoCreateTime:milli" json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	Ticks     int64      `json:"ticks"`
}
