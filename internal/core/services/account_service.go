package services

import (
	"context"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
	"github.com/jupiterclapton/dunbar/internal/core/ports"
)

// Pas d'authentification ici : la couche identité/session (externe) fournit
// l'ID du caller, le hash de mot de passe n'est pas notre affaire.
type accountService struct {
	store ports.SocialStore
}

func NewAccountService(store ports.SocialStore) ports.AccountService {
	return &accountService{store: store}
}

func (s *accountService) Register(ctx context.Context, cmd ports.RegisterAccountCmd) (*domain.Account, error) {
	account, err := domain.NewAccount(cmd.Username, cmd.FullName, cmd.IsPrivate)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// La contrainte UNIQUE sur username est la garantie ultime ;
	// le repo la traduit en ErrUsernameTaken.
	if err := tx.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// UpdatePrivacy ne touche pas aux edges existants : passer en privé ne
// révoque aucun follower, passer en public n'approuve aucune demande pending.
func (s *accountService) UpdatePrivacy(ctx context.Context, callerID string, private bool) (*domain.Account, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := tx.GetAccountForUpdate(ctx, callerID)
	if err != nil {
		return nil, err
	}

	account.SetPrivacy(private)
	if err := tx.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}
