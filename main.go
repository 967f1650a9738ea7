package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/pliu/quickchat/internal/assets"
	"github.com/pliu/quickchat/internal/auth"
	"github.com/pliu/quickchat/internal/chat"
	"github.com/pliu/quickchat/internal/config"
	"github.com/pliu/quickchat/internal/handlers"
	"github.com/pliu/quickchat/internal/middleware"
	"github.com/pliu/quickchat/internal/store/sqlstore"
	"github.com/pliu/quickchat/internal/ws"
)

// maxBodySize caps JSON request bodies at 4 MB, large enough for a
// base64 image payload.
const maxBodySize = 4 << 20

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	st, err := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	uploads, err := assets.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatal(err)
	}

	issuer := auth.NewIssuer(cfg.JWTSecret)

	hub := ws.NewHub()
	go hub.Run()

	coordinator := &chat.Coordinator{Store: st, Pusher: hub, Assets: uploads}
	authHandler := &handlers.AuthHandler{Store: st, Issuer: issuer, Assets: uploads}
	messageHandler := &handlers.MessageHandler{Coordinator: coordinator}

	r := mux.NewRouter()
	r.Use(middleware.Logging, corsMiddleware, limitBody)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Server is live"))
	}).Methods("GET")
	api.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(issuer, st))
	protected.HandleFunc("/auth/check", authHandler.Check).Methods("GET")
	protected.HandleFunc("/auth/update-profile", authHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/messages/users", messageHandler.GetUsersForSidebar).Methods("GET")
	protected.HandleFunc("/messages/mark/{id}", messageHandler.MarkMessageAsSeen).Methods("PUT")
	protected.HandleFunc("/messages/send/{id}", messageHandler.SendMessage).Methods("POST")
	protected.HandleFunc("/messages/{id}", messageHandler.GetMessages).Methods("GET")

	// Realtime endpoint; identity comes from the userId query param.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})

	// Uploaded profile pictures and message images.
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	log.Println("Starting server on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, token")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}
