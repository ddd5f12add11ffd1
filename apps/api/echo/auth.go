package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kavyasri378/student-profile-management1/core"
	"github.com/kavyasri378/student-profile-management1/core/user"
)

var (
	jwtSigningMethod = middleware.AlgorithmHS256

	appJWTConfig = middleware.JWTConfig{
		Claims:     new(Claims),
		ContextKey: "userToken",
	}
)

type Claims struct {
	jwt.StandardClaims

	OrigIssuedAt int64     `json:"orig_iat,omitempty"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         user.Role `json:"role,omitempty"`
}

func init() {
	appJWTConfig.SigningKey = []byte(core.Conf.SecretKey)
}

// GetUserClaims returns the JWT claims for usr. An optional origIat
// carries the original issue time across token refreshes.
func GetUserClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	iat := now.Unix()
	var oIat int64
	if len(origIat) > 0 {
		oIat = origIat[0]
	} else {
		oIat = iat
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   usr.ID,
			IssuedAt:  iat,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
		},
		OrigIssuedAt: oIat,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

func GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(jwtSigningMethod), claims)
	sToken, err := token.SignedString(appJWTConfig.SigningKey.([]byte))
	return sToken, errors.Wrap(err, "signing token")
}

func authenticate(ctx echo.Context, svc *user.Service, email, password string) (user.User, error) {
	usr, err := svc.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, err
	}
	if err = usr.CheckPassword(password); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx.Request().Context(), usr)
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func refreshToken(claims *Claims, usr user.User) (string, error) {
	origIat := claims.OrigIssuedAt
	if origIat == 0 {
		origIat = claims.IssuedAt
	}
	refreshExp := time.Unix(origIat, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(refreshExp) {
		return "", errRefreshExpired
	}
	return GenerateToken(GetUserClaims(usr, origIat))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token)
	if !ok {
		return Claims{}, errors.New("no token found in context")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, errors.New("invalid token claims")
	}
	return *claims, nil
}

// getContextUser returns the authenticated user, fetching it once per
// request and caching it in the request context.
func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get("user").(user.User); ok {
		return usr, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, err
	}
	ctx.Set("user", usr)
	return usr, nil
}
