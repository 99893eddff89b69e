package api

import (
	"database/sql"
	"net/http"

	"github.com/podari/podari/internal/geo"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, geoClient *geo.Client) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	interestsHandler := &InterestsHandler{DB: db}
	geocodeHandler := &GeocodeHandler{Geo: geoClient}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: account creation and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Session.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Profile.
	mux.Handle("GET /api/users/me", authMW(http.HandlerFunc(usersHandler.Me)))
	mux.Handle("PUT /api/users/me", authMW(http.HandlerFunc(usersHandler.UpdateMe)))

	// Items.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PATCH /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/images", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /api/items/{id}/images/{pos}", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Interest ledger and recipient selection.
	mux.Handle("POST /api/items/{id}/interest", authMW(http.HandlerFunc(interestsHandler.Express)))
	mux.Handle("DELETE /api/items/{id}/interest", authMW(http.HandlerFunc(interestsHandler.Withdraw)))
	mux.Handle("GET /api/items/{id}/interest", authMW(http.HandlerFunc(interestsHandler.List)))
	mux.Handle("POST /api/items/{id}/select-recipient", authMW(http.HandlerFunc(interestsHandler.Select)))
	mux.Handle("DELETE /api/items/{id}/select-recipient", authMW(http.HandlerFunc(interestsHandler.Unselect)))
	mux.Handle("POST /api/items/{id}/mark-taken", authMW(http.HandlerFunc(interestsHandler.MarkTaken)))

	// Geocoding (display helper).
	if geoClient != nil {
		mux.Handle("GET /api/geocode", authMW(http.HandlerFunc(geocodeHandler.Forward)))
		mux.Handle("GET /api/geocode/reverse", authMW(http.HandlerFunc(geocodeHandler.Reverse)))
	}

	return mux
}
