package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/models"
	"github.com/yeremiapane/newrestaurant/repository"
	"github.com/yeremiapane/newrestaurant/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Username string      `json:"username" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role"`
}

type ProfileInput struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

type UserService struct {
	users *repository.Repository[models.User]
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{users: repository.New[models.User](db, "user")}
}

// Register creates an account. Anyone may register a customer; only an admin may
// create staff or admin accounts.
func (s *UserService) Register(ctx context.Context, actor *Actor, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = models.NormalizeKey(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !in.Role.Valid() {
		return nil, apperror.Validation("unknown role %q", in.Role)
	}
	if in.Role != models.RoleCustomer {
		if err := Authorize(actor, ResourceUserRole, 0); err != nil {
			return nil, apperror.Forbidden("%s accounts cannot be self-registered", in.Role)
		}
	}

	if err := s.ensureUnique(ctx, in.Username, in.Email, 0); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Storage("failed to hash password", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("New user registered")
	return &user, nil
}

func (s *UserService) ensureUnique(ctx context.Context, username, email string, exceptID uint) error {
	taken, err := s.users.Exists(ctx,
		repository.Where("username_key = ?", models.NormalizeKey(username)),
		repository.Where("id <> ?", exceptID))
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("username %q is already taken", username)
	}

	taken, err = s.EmailTakenByAnother(ctx, email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("email %q is already registered", email)
	}
	return nil
}

func (s *UserService) EmailTakenByAnother(ctx context.Context, email string, userID uint) (bool, error) {
	return s.users.Exists(ctx,
		repository.Where("email = ?", models.NormalizeKey(email)),
		repository.Where("id <> ?", userID))
}

var errBadCredentials = &apperror.Error{Kind: apperror.ErrUnauthenticated, Message: "invalid username or password"}

// Authenticate checks a username (or email) and password.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = models.NormalizeKey(identifier)
	if identifier == "" || password == "" {
		return nil, apperror.Validation("username and password are required")
	}

	column := "username_key = ?"
	if strings.Contains(identifier, "@") {
		column = "email = ?"
	}
	user, err := s.users.First(ctx, repository.Where(column, identifier))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return user, nil
}

// GetUser returns a user visible to actor: themselves, or anyone for staff and admin.
func (s *UserService) GetUser(ctx context.Context, actor *Actor, id uint) (*models.User, error) {
	if err := Authorize(actor, ResourceProfile, id); err != nil {
		if Authorize(actor, ResourceUsers, 0) != nil {
			return nil, err
		}
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, actor *Actor) ([]models.User, error) {
	if err := Authorize(actor, ResourceUsers, 0); err != nil {
		return nil, err
	}
	return s.users.Find(ctx, repository.Order("username_key ASC"))
}

// UpdateProfile changes username and email only.
func (s *UserService) UpdateProfile(ctx context.Context, actor *Actor, id uint, in ProfileInput) (*models.User, error) {
	if err := Authorize(actor, ResourceProfile, id); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = models.NormalizeKey(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in.Username, in.Email, id); err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Email = in.Email
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangeRole(ctx context.Context, actor *Actor, id uint, role models.Role) (*models.User, error) {
	if err := Authorize(actor, ResourceUserRole, 0); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperror.Validation("unknown role %q", role)
	}
	if actor.UserID == id {
		return nil, apperror.InvalidState("administrators cannot change their own role")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"user_id": id, "role": role, "by": actor.UserID}).Info("User role changed")
	return user, nil
}

// EnsureAdmin creates the first administrator when none exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, bool, error) {
	existing, err := s.users.First(ctx, repository.Where("role = ?", models.RoleAdmin))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, false, err
	}

	bootstrap := &Actor{UserID: ^uint(0), Role: models.RoleAdmin}
	user, err := s.Register(ctx, bootstrap, RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
