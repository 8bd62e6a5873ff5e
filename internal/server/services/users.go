package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kymbms/name-card-manage/internal/common"
	"github.com/kymbms/name-card-manage/internal/dbx"
	"github.com/kymbms/name-card-manage/internal/server/auth"
	"github.com/kymbms/name-card-manage/internal/server/config"
	"github.com/kymbms/name-card-manage/internal/server/models"
	"github.com/kymbms/name-card-manage/internal/server/repositories/repomanager"
)

// Session is what a successful register/login/refresh hands back to the
// transport layer: the authenticated user and a fresh token pair.
type Session struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates the account and immediately signs it in, so a new user
// gets a usable session from a single round trip.
func (s *UserService) Register(ctx context.Context, username, password string) (*Session, error) {

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: hash,
	}

	var session *Session

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err = repo.Create(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrAlreadyExists) {
				return common.ErrAlreadyExists
			}
			return fmt.Errorf("error creating user: %v", err)
		}

		session, err = s.generateSession(ctx, tx, user.ID)
		return err
	})

	if err != nil {
		return nil, err
	}

	return session, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidLoginPassword
		}
		return nil, common.ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrInvalidLoginPassword
	}

	return s.generateSession(ctx, s.db, user.ID)
}

// RefreshToken exchanges a valid refresh token for a new session, revoking
// the old token so each refresh token is single-use.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {

	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %v", err)
	}

	if token.ExpiredAt(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var session *Session

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %v", err)
		}

		session, err = s.generateSession(ctx, tx, token.UserID)
		return err
	})

	if err != nil {
		return nil, err
	}

	return session, nil
}

func (s *UserService) generateSession(ctx context.Context, db dbx.DBTX, userID string) (*Session, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}

	refreshToken := uuid.NewString()

	repo := s.repomanager.RefreshTokens(db)
	if err := repo.Create(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}

	return &Session{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ValidateAccessToken checks the JWT and returns the user it was issued to.
func (s *UserService) ValidateAccessToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}
