package jwt

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims claims estándar más el id numérico del usuario emitido por el subsistema de autenticación.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Generate genera un token HS256. El motor no emite tokens: se usa en pruebas y herramientas locales.
func Generate(secret string, userID int64, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID: userID,
		Role:   role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma, expiración y (si issuer no está vacío) emisor, y devuelve el id del actor.
// Usa el claim user_id; si falta, intenta interpretar sub como entero.
func Parse(secret, issuer, tokenString string) (actorID int64, role string, err error) {
	if secret == "" {
		return 0, "", fmt.Errorf("jwt: secret vacío")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return 0, "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("claims inválidos")
	}
	actorID = claims.UserID
	if actorID == 0 && claims.Subject != "" {
		actorID, err = strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return 0, "", fmt.Errorf("sub no numérico: %w", err)
		}
	}
	if actorID <= 0 {
		return 0, "", fmt.Errorf("token sin identificador de usuario")
	}
	return actorID, claims.Role, nil
}
