// Package httpapp provides the HTTP API server.
//
//	@title						RealWorld API
//	@version					1.0
//	@description				A social blogging platform API: articles, comments, tags, profiles,
//	@description				follows and favorites.
//	@description
//	@description				## Authentication
//	@description
//	@description				Register with `POST /api/users` or log in with `POST /api/users/login`,
//	@description				then send the returned token on every authenticated request:
//	@description
//	@description				```bash
//	@description				curl /api/user -H "Token: YOUR_TOKEN"
//	@description				```
//	@description
//	@description				Logging in opens a short-lived one-shot session and redirects to
//	@description				`GET /api/user`, which redeems the session cookie and returns the
//	@description				user with a fresh token.
//
//	@license.name				MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	TokenAuth
//	@in							header
//	@name						Token
//	@description				Signed token from registration or login
//
//	@tag.name					Users
//	@tag.description			Registration, login and account settings.
//
//	@tag.name					Profiles
//	@tag.description			Public profiles and follow relationships.
//
//	@tag.name					Articles
//	@tag.description			Publish, browse, edit and delete articles.
//
//	@tag.name					Comments
//	@tag.description			Comment on articles.
//
//	@tag.name					Favorites
//	@tag.description			Mark articles as favorites.
//
//	@tag.name					Tags
//	@tag.description			Browse the tags attached to articles.
package httpapp
