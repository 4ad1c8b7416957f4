package httpapi

import (
	"net/http"

	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

// Server est l'adapter primaire HTTP/JSON. Il ne contient AUCUNE règle
// métier : parsing, extraction du caller, appel du service, rendu.
type Server struct {
	accounts      ports.AccountService
	relationships ports.RelationshipService
	posts         ports.PostService
	moderation    ports.ModerationService
}

func NewServer(
	accounts ports.AccountService,
	relationships ports.RelationshipService,
	posts ports.PostService,
	moderation ports.ModerationService,
) *Server {
	return &Server{
		accounts:      accounts,
		relationships: relationships,
		posts:         posts,
		moderation:    moderation,
	}
}

// Routes construit le mux (method patterns Go 1.22).
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Comptes
	mux.HandleFunc("POST /accounts", s.handleRegister)
	mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /accounts/me/privacy", s.handleUpdatePrivacy)

	// Graphe de follow
	mux.HandleFunc("POST /accounts/{id}/follow", s.handleRequestFollow)
	mux.HandleFunc("DELETE /accounts/{id}/follow", s.handleUnfollow)
	mux.HandleFunc("GET /accounts/{id}/followers", s.handleListFollowers)
	mux.HandleFunc("GET /accounts/{id}/following", s.handleListFollowing)
	mux.HandleFunc("DELETE /followers/{id}", s.handleRemoveFollower)

	// Demandes pending (côté compte privé)
	mux.HandleFunc("GET /follow-requests", s.handleListPendingRequests)
	mux.HandleFunc("POST /follow-requests/{followerId}/accept", s.handleAcceptFollow)
	mux.HandleFunc("POST /follow-requests/{followerId}/reject", s.handleRejectFollow)

	// Posts & commentaires
	mux.HandleFunc("POST /posts", s.handleCreatePost)
	mux.HandleFunc("GET /posts/{id}", s.handleGetPost)
	mux.HandleFunc("DELETE /posts/{id}", s.handleDeletePost)
	mux.HandleFunc("GET /accounts/{id}/posts", s.handleListPosts)
	mux.HandleFunc("POST /posts/{id}/comments", s.handleAddComment)

	// Modération
	mux.HandleFunc("POST /posts/{id}/report", s.handleSubmitReport)
	mux.HandleFunc("POST /posts/{id}/review", s.handleReviewPost)
	mux.HandleFunc("GET /moderation/queue", s.handleListPriorityQueue)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// requireCaller coupe court si la requête est anonyme.
func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := CallerID(r.Context())
	if caller == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return caller, true
}
