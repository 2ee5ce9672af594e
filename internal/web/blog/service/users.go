package service

import (
	"context"
	"sync"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/dto"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-rest/library/jwt"
)

var (
	bcryptCost = bcrypt.DefaultCost

	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy burns the same time as a real comparison for unknown accounts
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Signup register a new user and issue a session token
func (s *Blog) Signup(ctx context.Context, req *dto.SignupReq) (user *model.User, token string, err error) {
	logger := gmw.GetLogger(ctx).Named("signup")

	name, err := sanitizeRequiredText(req.Name, maxUserNameLength, "userName")
	if err != nil {
		return nil, "", err
	}
	email, err := sanitizeEmail(req.Email)
	if err != nil {
		return nil, "", err
	}
	password, err := sanitizePassword(req.Password)
	if err != nil {
		return nil, "", err
	}
	if req.Avatar == nil || len(req.Avatar.Data) == 0 {
		return nil, "", invalidArgument("avatar is required")
	}

	if _, err = s.dao.GetUserByEmail(ctx, email); err == nil {
		return nil, "", invalidArgument("Email already registered")
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, "", errors.Wrap(err, "check email")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}

	avatar, err := s.uploadImage(ctx, folderAvatars, req.Avatar)
	if err != nil {
		return nil, "", errors.Wrap(err, "upload avatar")
	}

	user = model.NewUser()
	user.Name = name
	user.Email = email
	user.Password = string(hashed)
	user.Avatar = avatar
	if err = s.dao.CreateUser(ctx, user); err != nil {
		s.removeAsset(ctx, avatar)
		if errors.Is(err, model.ErrConflict) {
			return nil, "", invalidArgument("Email already registered")
		}

		return nil, "", errors.Wrap(err, "create user")
	}

	if token, err = s.IssueToken(user); err != nil {
		return nil, "", err
	}

	logger.Info("new user signed up", zap.String("user", user.ID.Hex()))
	return user, token, nil
}

// Login verify credentials and issue a session token.
// Unknown email and wrong password both return model.ErrInvalidCredentials.
func (s *Blog) Login(ctx context.Context, email, password string) (user *model.User, token string, err error) {
	invalid := model.NewUserError(model.ErrInvalidCredentials, "Invalid credentials")
	if email == "" || password == "" || len(password) > maxUserPasswordLength {
		return nil, "", invalid
	}

	user, err = s.dao.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			compareDummy(password)
			return nil, "", invalid
		}

		return nil, "", errors.Wrap(err, "find user")
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		gmw.GetLogger(ctx).Info("login with wrong password", zap.String("user", user.ID.Hex()))
		return nil, "", invalid
	}

	if token, err = s.IssueToken(user); err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// CurrentUser load the user behind a session
func (s *Blog) CurrentUser(ctx context.Context, uid primitive.ObjectID) (*model.User, error) {
	return s.loadActor(ctx, uid)
}

// IssueToken sign a session token for user
func (s *Blog) IssueToken(user *model.User) (string, error) {
	token, err := s.jwt.Sign(jwt.NewUserClaims(user.ID.Hex(), string(user.Role), s.tokenTTL))
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}
