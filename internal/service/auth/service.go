package auth

import (
	"context"
	"fmt"

	"github.com/expensehub/expense-backend-go/internal/domain/auth"
	"github.com/expensehub/expense-backend-go/internal/domain/company"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
	"github.com/expensehub/expense-backend-go/internal/pkg/jwt"
	"github.com/expensehub/expense-backend-go/internal/repository/postgresql"
	"github.com/expensehub/expense-backend-go/internal/service/currency"
	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultCountry = "United States"

type AuthService struct {
	db *database.DB
	user.UserRepository
	company.CompanyRepository
	postgresql.JWTRepository
	jwt.Service
	currencyService *currency.CurrencyService
}

func NewAuthService(
	db *database.DB,
	userRepository user.UserRepository,
	companyRepository company.CompanyRepository,
	jwtRepository postgresql.JWTRepository,
	jwtService jwt.Service,
	currencyService *currency.CurrencyService,
) *AuthService {
	return &AuthService{
		db:                db,
		UserRepository:    userRepository,
		CompanyRepository: companyRepository,
		JWTRepository:     jwtRepository,
		Service:           jwtService,
		currencyService:   currencyService,
	}
}

// Signup registers the first user of a new company. The company is
// created alongside with its base currency resolved from the chosen
// country, and the user becomes its ADMIN.
func (a *AuthService) Signup(ctx context.Context, req auth.SignupRequest) (auth.SignupResponse, error) {
	existing, err := a.UserRepository.GetByEmail(ctx, req.Email)
	if err != nil && err != pgx.ErrNoRows {
		return auth.SignupResponse{}, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing.ID != "" {
		return auth.SignupResponse{}, auth.ErrEmailExists
	}

	country := req.Country
	if country == "" {
		country = defaultCountry
	}

	baseCurrency, err := a.currencyService.CurrencyForCountry(ctx, country)
	if err != nil {
		// Unknown country falls back to USD rather than blocking signup.
		baseCurrency = "USD"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return auth.SignupResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}
	passwordHash := string(hash)

	var response auth.SignupResponse
	err = postgresql.WithTransaction(ctx, a.db, func(tx pgx.Tx) error {
		txCtx := postgresql.TxContext(ctx, tx)

		newUser, err := a.UserRepository.Create(txCtx, user.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: &passwordHash,
			Role:         user.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		newCompany, err := a.CompanyRepository.Create(txCtx, company.Company{
			Name:         fmt.Sprintf("%s's Company", req.Name),
			Country:      country,
			BaseCurrency: baseCurrency,
			AdminUserID:  &newUser.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}

		newUser.CompanyID = &newCompany.ID
		if _, err := a.UserRepository.Update(txCtx, newUser); err != nil {
			return fmt.Errorf("failed to attach user to company: %w", err)
		}

		response = auth.SignupResponse{
			UserID:       newUser.ID,
			Name:         newUser.Name,
			Email:        newUser.Email,
			CompanyID:    newCompany.ID,
			BaseCurrency: baseCurrency,
		}
		return nil
	})
	if err != nil {
		return auth.SignupResponse{}, err
	}

	return response, nil
}

// Login implements password login and persists the refresh token.
func (a *AuthService) Login(ctx context.Context, loginReq auth.LoginRequest) (auth.TokenResponse, error) {
	var tokenResponse auth.TokenResponse

	userData, err := a.UserRepository.GetByEmail(ctx, loginReq.Email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if userData.PasswordHash == nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*userData.PasswordHash), []byte(loginReq.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	err = postgresql.WithTransaction(ctx, a.db, func(tx pgx.Tx) error {
		txCtx := postgresql.TxContext(ctx, tx)

		tokenResponse.AccessToken, tokenResponse.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(userData.ID, userData.Email, userData.CompanyID, userData.Role)
		if err != nil {
			return fmt.Errorf("failed to create access token: %w", err)
		}
		tokenResponse.RefreshToken, tokenResponse.RefreshTokenExpiresIn, err = a.Service.GenerateRefreshToken(userData.ID)
		if err != nil {
			return fmt.Errorf("failed to create refresh token: %w", err)
		}

		if err := a.JWTRepository.CreateRefreshToken(txCtx, userData.ID, tokenResponse.RefreshToken, tokenResponse.RefreshTokenExpiresIn); err != nil {
			return fmt.Errorf("failed to save refresh token to database: %w", err)
		}
		return nil
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	return tokenResponse, nil
}

// RefreshToken exchanges a valid, unrevoked refresh token for a new
// access token.
func (a *AuthService) RefreshToken(ctx context.Context, refreshToken string) (auth.AccessTokenResponse, error) {
	token, err := jwtauth.VerifyToken(a.JWTAuth(), refreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	claims, err := token.AsMap(ctx)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}
	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "refresh" {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	isRevoked, err := a.JWTRepository.IsRefreshTokenRevoked(ctx, refreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}
	if isRevoked {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	userData, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrUserNotFound
	}

	var response auth.AccessTokenResponse
	response.AccessToken, response.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(userData.ID, userData.Email, userData.CompanyID, userData.Role)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return response, nil
}

// Logout revokes the refresh token; the access token simply expires.
func (a *AuthService) Logout(ctx context.Context, refreshToken string) error {
	isRevoked, err := a.JWTRepository.IsRefreshTokenRevoked(ctx, refreshToken)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil
		}
		return fmt.Errorf("failed to check if refresh token is revoked: %w", err)
	}
	if isRevoked {
		return nil
	}

	if err := a.JWTRepository.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Me returns the authenticated user's profile.
func (a *AuthService) Me(ctx context.Context, userID string) (user.UserResponse, error) {
	userData, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.UserResponse{}, auth.ErrUserNotFound
		}
		return user.UserResponse{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user.ToResponse(userData), nil
}
