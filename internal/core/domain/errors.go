package domain

import "errors"

// --- ERREURS DU DOMAINE ---
// Chaque erreur sentinelle appartient à une catégorie stable (Kind).
// L'adapter primaire traduit la catégorie en code HTTP, jamais le texte
// d'une erreur technique du stockage.

var (
	// Validation (entrée malformée, règle métier bloquante)
	ErrSelfFollow          = errors.New("cannot follow yourself")
	ErrInvalidUsername     = errors.New("username must be at least 3 characters")
	ErrEmptyContent        = errors.New("content cannot be empty")
	ErrInvalidReportReason = errors.New("unknown report reason")
	ErrInvalidReviewAction = errors.New("review action must be approve or remove")

	// Conflits (état déjà présent, capacité atteinte)
	ErrAlreadyRelated   = errors.New("already following or request already pending")
	ErrFollowCapReached = errors.New("follow limit reached")
	ErrDuplicateReport  = errors.New("post already reported by this account")
	ErrUsernameTaken    = errors.New("username already taken")

	// Introuvables
	ErrAccountNotFound = errors.New("account not found")
	ErrEdgeNotFound    = errors.New("relationship not found")
	ErrRequestNotFound = errors.New("follow request not found")
	ErrNotFollowing    = errors.New("not following this account")
	ErrPostNotFound    = errors.New("post not found")

	// Autorisation (précondition vérifiée ici, identité fournie par la couche session)
	ErrNotAllowed = errors.New("caller is not allowed to perform this action")
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuthorization
	KindTransient
)

// TransientError enveloppe une panne passagère du stockage (timeout de lock,
// connexion perdue, sérialisation avortée). Le caller peut retenter, mais
// toujours l'unité atomique complète — jamais une étape isolée.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient storage failure: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Kind classifie une erreur pour la couche transport.
func Kind(err error) ErrorKind {
	var transient *TransientError
	if errors.As(err, &transient) {
		return KindTransient
	}

	switch {
	case errors.Is(err, ErrSelfFollow),
		errors.Is(err, ErrInvalidUsername),
		errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrInvalidReportReason),
		errors.Is(err, ErrInvalidReviewAction):
		return KindValidation

	case errors.Is(err, ErrAlreadyRelated),
		errors.Is(err, ErrFollowCapReached),
		errors.Is(err, ErrDuplicateReport),
		errors.Is(err, ErrUsernameTaken):
		return KindConflict

	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrEdgeNotFound),
		errors.Is(err, ErrRequestNotFound),
		errors.Is(err, ErrNotFollowing),
		errors.Is(err, ErrPostNotFound):
		return KindNotFound

	case errors.Is(err, ErrNotAllowed):
		return KindAuthorization
	}

	return KindUnknown
}
