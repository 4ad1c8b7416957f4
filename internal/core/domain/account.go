package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// --- ENTITÉ ---

// Account porte les compteurs dénormalisés du graphe.
// Invariant : FollowerCount == nombre d'edges approuvés où l'account est suivi,
// FollowingCount == nombre d'edges approuvés où il est le suiveur.
// Seul le store transactionnel a le droit d'écrire ces deux champs.
type Account struct {
	ID               string
	Username         string
	FullName         string
	AvatarURL        string // URL opaque, jamais validée ici (object storage externe)
	Role             Role
	IsPrivate        bool
	FollowerCount    int
	FollowingCount   int
	RemovedPostCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// --- FACTORY ---

// NewAccount crée une instance valide. L'identité est générée ICI, pas en DB.
func NewAccount(username, fullName string, isPrivate bool) (*Account, error) {
	if len(strings.TrimSpace(username)) < 3 {
		return nil, ErrInvalidUsername
	}

	now := time.Now().UTC()
	return &Account{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(username),
		FullName:  strings.TrimSpace(fullName),
		Role:      RoleUser,
		IsPrivate: isPrivate,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// --- COMPORTEMENTS ---

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// SetPrivacy change le flag sans toucher aux edges existants :
// la confidentialité ne gouverne que la façon dont les NOUVELLES
// demandes de follow démarrent (pending ou approuvée).
func (a *Account) SetPrivacy(private bool) {
	a.IsPrivate = private
	a.touch()
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now().UTC()
}
