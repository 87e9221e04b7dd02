package users

import "time"

type MeResponse struct {
	User   UserDTO   `json:"user"`
	Access AccessDTO `json:"access"`
	Stats  StatsDTO  `json:"stats"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created"`
}

/* ---------- ACCESS ---------- */

type AccessDTO struct {
	Capabilities []string `json:"capabilities"`
}

/* ---------- STATS ---------- */

type StatsDTO struct {
	Courses int64 `json:"courses"`
	Modules int64 `json:"modules"`
}
