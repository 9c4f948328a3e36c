package models

// User is the authenticated account as reported by the backend.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt Timestamp `json:"createdAt"`
}

// UserPatch is a partial user record. Nil fields are left untouched by Apply.
type UserPatch struct {
	ID        *int64
	Email     *string
	Name      *string
	AvatarURL *string
	CreatedAt *Timestamp
}

// Apply shallow-merges p into a copy of u.
// An empty AvatarURL in the patch clears the avatar.
func (p UserPatch) Apply(u User) User {
	if p.ID != nil {
		u.ID = *p.ID
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.AvatarURL != nil {
		if *p.AvatarURL == "" {
			u.AvatarURL = nil
		} else {
			avatar := *p.AvatarURL
			u.AvatarURL = &avatar
		}
	}
	if p.CreatedAt != nil {
		u.CreatedAt = *p.CreatedAt
	}
	return u
}

// Clone returns a deep copy of u, so callers can't alias the avatar pointer.
func (u User) Clone() User {
	if u.AvatarURL != nil {
		avatar := *u.AvatarURL
		u.AvatarURL = &avatar
	}
	return u
}
