package services

import (
	"context"

	"rescuereach/models"
	"rescuereach/repositories"
	"rescuereach/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// UserService covers the account surface the SOS pipeline depends on:
// registration keyed by verified phone number, profile fields, and the
// stored emergency contacts. OTP verification happens upstream of this
// service.
type UserService struct {
	userRepo   *repositories.UserRepository
	jwtService *utils.JWTService
	validator  *utils.ValidationService
}

type RegisterRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	FirstName   string `json:"firstName" validate:"required,min=1,max=50"`
	LastName    string `json:"lastName,omitempty" validate:"max=50"`
	State       string `json:"state,omitempty"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=citizen responder"`
}

type AuthResult struct {
	User   *models.User     `json:"user"`
	Tokens *utils.TokenPair `json:"tokens"`
}

func NewUserService(userRepo *repositories.UserRepository, jwtService *utils.JWTService, validator *utils.ValidationService) *UserService {
	return &UserService{
		userRepo:   userRepo,
		jwtService: jwtService,
		validator:  validator,
	}
}

// Register creates or reactivates the account for a verified phone number
// and issues a token pair.
func (us *UserService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	if verrs := us.validator.ValidateStruct(req); len(verrs) > 0 {
		return nil, utils.NewFieldValidationError(verrs)
	}

	phone := utils.NormalizePhoneNumber(req.PhoneNumber)
	role := req.Role
	if role == "" {
		role = models.RoleCitizen
	}

	user, err := us.userRepo.GetByPhoneNumber(ctx, phone)
	if err != nil {
		if !utils.IsNotFound(err) {
			return nil, err
		}
		user = &models.User{
			ID:          uuid.New().String(),
			PhoneNumber: phone,
			Role:        role,
		}
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.State = req.State
	user.IsActive = true

	if err := us.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := us.jwtService.GenerateTokenPair(user.ID, user.PhoneNumber, user.Role)
	if err != nil {
		return nil, utils.WrapError(err, "TOKEN_ISSUE", "Failed to issue tokens")
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login issues a fresh token pair for an existing verified phone number.
func (us *UserService) Login(ctx context.Context, phoneNumber string) (*AuthResult, error) {
	phone := utils.NormalizePhoneNumber(phoneNumber)
	user, err := us.userRepo.GetByPhoneNumber(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, utils.NewForbiddenError("Account is deactivated")
	}

	tokens, err := us.jwtService.GenerateTokenPair(user.ID, user.PhoneNumber, user.Role)
	if err != nil {
		return nil, utils.WrapError(err, "TOKEN_ISSUE", "Failed to issue tokens")
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair.
func (us *UserService) Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	tokens, err := us.jwtService.RefreshToken(refreshToken)
	if err != nil {
		return nil, utils.NewUnauthorizedError("Invalid refresh token")
	}
	return tokens, nil
}

// GetProfile returns the account record.
func (us *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return us.userRepo.GetByID(ctx, userID)
}

// UpdateProfile applies partial profile changes.
func (us *UserService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	fields := bson.M{}
	if req.FirstName != "" {
		fields["firstName"] = req.FirstName
	}
	if req.LastName != "" {
		fields["lastName"] = req.LastName
	}
	if req.State != "" {
		fields["state"] = req.State
	}
	if req.FCMToken != "" {
		fields["fcmToken"] = req.FCMToken
	}
	if len(fields) == 0 {
		return us.userRepo.GetByID(ctx, userID)
	}

	if err := us.userRepo.UpdateProfile(ctx, userID, fields); err != nil {
		return nil, err
	}
	return us.userRepo.GetByID(ctx, userID)
}

// UpdateContacts replaces the stored emergency contacts.
func (us *UserService) UpdateContacts(ctx context.Context, userID string, req *models.UpdateContactsRequest) error {
	if verrs := us.validator.ValidateStruct(req); len(verrs) > 0 {
		return utils.NewFieldValidationError(verrs)
	}
	for _, contact := range req.EmergencyContacts {
		if utils.NormalizePhoneNumber(contact.Phone) == "" {
			return utils.NewBadRequestError("Contact " + contact.Name + " has an invalid phone number")
		}
	}
	return us.userRepo.UpdateEmergencyContacts(ctx, userID, req.EmergencyContacts)
}
