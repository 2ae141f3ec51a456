package auth

import (
	"github.com/jrsteele09/go-indieauth-server/identity"
	"github.com/jrsteele09/go-indieauth-server/indieauth"
	"github.com/jrsteele09/go-indieauth-server/scopes"
)

// ProjectProfile discloses the parts of ident covered by granted. "me" is
// always present; name, url and photo need "profile"; email needs both
// "profile" and "email".
func ProjectProfile(ident *identity.Identity, granted scopes.Set) indieauth.Profile {
	profile := indieauth.Profile{Me: identity.CanonicalURL(ident.ProfileURL)}
	if !granted.Contains(scopes.Profile) {
		return profile
	}

	info := &indieauth.ProfileInfo{
		Name:  ident.Name,
		URL:   ident.URL,
		Photo: ident.Photo,
	}
	if granted.Contains(scopes.Email) {
		info.Email = ident.Email
	}
	profile.Profile = info
	return profile
}
