package session

import "github.com/dmitrijs2005/docsum/internal/client/models"

type actionKind int

const (
	actionSetLoading actionKind = iota
	actionLoginSuccess
	actionLogout
	actionUpdateProfile
)

type action struct {
	kind    actionKind
	loading bool
	token   string
	user    models.User
	patch   models.UserPatch
}

// reduce returns the state that follows a. The result always satisfies
// IsAuthenticated == (Token != "" && User != nil).
func reduce(s State, a action) State {
	switch a.kind {
	case actionSetLoading:
		s.Loading = a.loading

	case actionLoginSuccess:
		u := a.user.Clone()
		s = State{IsAuthenticated: true, User: &u, Token: a.token}

	case actionLogout:
		s = State{}

	case actionUpdateProfile:
		if s.User != nil {
			u := a.patch.Apply(s.User.Clone())
			s.User = &u
		}
	}
	return normalize(s)
}

func normalize(s State) State {
	if s.Token == "" || s.User == nil {
		s.Token = ""
		s.User = nil
		s.IsAuthenticated = false
		return s
	}
	s.IsAuthenticated = true
	return s
}
