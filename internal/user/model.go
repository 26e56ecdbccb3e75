package user

import "time"

// Bike is the rider profile shown next to a user.
type Bike struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type User struct {
	ID            string    `json:"id"`
	UserName      string    `json:"userName"`
	Email         string    `json:"email"`
	Password      string    `json:"-"`
	Admin         bool      `json:"admin"`
	PushToken     string    `json:"pushToken,omitempty"`
	ProfileAvatar string    `json:"profileAvatar"`
	Bike          Bike      `json:"userBike"`
	Favorites     []string  `json:"favorites"`
	Friends       []string  `json:"friendsId"`
	Blocked       []string  `json:"blocked"`
	Owned         []string  `json:"owned"`
	CreatedAt     time.Time `json:"-"`
}

// Profile is the public slice of a user, safe to hand to other users.
type Profile struct {
	ID            string `json:"id"`
	UserName      string `json:"userName"`
	ProfileAvatar string `json:"profileAvatar"`
}

// DeliveryInfo is what the messaging core needs to decide whether and how
// to reach a user: display name, push token, and block list.
type DeliveryInfo struct {
	UserName  string
	PushToken string
	Blocked   []string
}

type RegisterRequest struct {
	UserName      string `json:"userName"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	ProfileAvatar string `json:"profileAvatar"`
	Bike          *Bike  `json:"userBike"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

// AuthResponse is returned by both register and login: a token plus the
// full account view the mobile client caches.
type AuthResponse struct {
	Token         string   `json:"token"`
	ID            string   `json:"id"`
	Admin         bool     `json:"admin"`
	Email         string   `json:"email"`
	ProfileAvatar string   `json:"profileAvatar"`
	UserName      string   `json:"userName"`
	Bike          Bike     `json:"userBike"`
	Friends       []string `json:"friendsId"`
	Favorites     []string `json:"favorites"`
	Blocked       []string `json:"blocked"`
	Owned         []string `json:"owned"`
}
